// Package register sesiones de caja: cada una mantiene un carrito en el servidor
// reconciliado contra el feed vivo del catálogo.
package register

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/festival-pos/internal/application/catalog"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/cart"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// ErrClosed el registro ya se apagó.
var ErrClosed = errors.New("register: cerrado")

// Checkouter cobra un carrito (implementado por checkout.Engine).
type Checkouter interface {
	Checkout(ctx context.Context, s entity.Session, lines []dto.CheckoutLine) (*dto.SaleReceipt, error)
}

// Watcher abre suscripciones al catálogo (implementado por catalog.Feed).
type Watcher interface {
	Watch(ctx context.Context, classID string) (*catalog.Watch, error)
}

// Manager registro de sesiones de caja abiertas.
type Manager struct {
	feed    Watcher
	engine  Checkouter
	clock   clock.Clock
	idle    time.Duration
	metrics ports.Metrics
	log     *logger.Logger

	root   context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	byID   map[string]*session
	closed bool
}

// NewManager construye el registro. idle es el tiempo sin uso tras el que se cierra una sesión.
func NewManager(feed Watcher, engine Checkouter, clk clock.Clock, idle time.Duration, metrics ports.Metrics, log *logger.Logger) *Manager {
	root, stop := context.WithCancel(context.Background())
	return &Manager{
		feed:    feed,
		engine:  engine,
		clock:   clk,
		idle:    idle,
		metrics: metrics,
		log:     log.Named("register"),
		root:    root,
		stop:    stop,
		byID:    make(map[string]*session),
	}
}

type session struct {
	id    string
	owner entity.Session
	watch *catalog.Watch
	ready chan struct{}

	mu       sync.Mutex
	cart     *cart.Cart
	products []entity.Product
	index    map[string]entity.Product
	loadErr  error
	busy     bool
	synced   time.Time
	lastSeen time.Time
}

// Open abre una sesión para la clase del dueño y espera el primer snapshot del catálogo.
func (m *Manager) Open(ctx context.Context, owner entity.Session) (*dto.RegisterView, error) {
	if owner.ClassID == "" {
		return nil, domain.ErrMissingParams
	}
	w, err := m.feed.Watch(m.root, owner.ClassID)
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()
	s := &session{
		id:       uuid.New().String(),
		owner:    owner,
		watch:    w,
		ready:    make(chan struct{}),
		cart:     cart.New(),
		index:    map[string]entity.Product{},
		lastSeen: now,
	}
	go m.follow(s)

	select {
	case <-s.ready:
	case <-ctx.Done():
		w.Close()
		return nil, ctx.Err()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		w.Close()
		return nil, ErrClosed
	}
	m.byID[s.id] = s
	open := len(m.byID)
	m.mu.Unlock()
	m.metrics.RegisterSessions(open)
	m.log.Info().Str("session_id", s.id).Str("class_id", owner.ClassID).Str("role", owner.Role).Msg("sesión de caja abierta")

	s.mu.Lock()
	loadErr, view := s.loadErr, s.view()
	s.mu.Unlock()
	if loadErr != nil {
		m.drop(s.id)
		return nil, loadErr
	}
	return view, nil
}

// follow aplica cada snapshot al carrito antes de que cualquier lectura lo vea.
func (m *Manager) follow(s *session) {
	first := true
	for snap := range s.watch.Snapshots() {
		s.mu.Lock()
		if snap.Err != nil {
			s.loadErr = snap.Err
		} else {
			s.loadErr = nil
			s.products = snap.Products
			s.index = snap.Index()
			if touched := s.cart.Reconcile(s.index); len(touched) > 0 {
				m.log.Debug().Str("session_id", s.id).Strs("products", touched).Msg("carrito reconciliado")
			}
			s.synced = m.clock.Now()
		}
		s.mu.Unlock()
		if first {
			close(s.ready)
			first = false
		}
	}
	if first {
		close(s.ready)
	}
}

// View devuelve el carrito reconciliado y el catálogo vivo.
func (m *Manager) View(_ context.Context, owner entity.Session, id string) (*dto.RegisterView, error) {
	s, err := m.get(owner, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = m.clock.Now()
	return s.view(), nil
}

// Adjust suma delta unidades del producto al carrito, acotado por el stock vivo.
func (m *Manager) Adjust(_ context.Context, owner entity.Session, id, productID string, delta int64) (*dto.RegisterView, error) {
	s, err := m.get(owner, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = m.clock.Now()
	if s.busy {
		return nil, domain.ErrCheckoutInProgress
	}
	p, ok := s.index[productID]
	if !ok {
		if delta < 0 {
			s.cart.Remove(productID)
			return s.view(), nil
		}
		return nil, domain.ErrNotFound
	}
	if err := s.cart.Adjust(p, delta); err != nil {
		return nil, err
	}
	return s.view(), nil
}

// Checkout cobra el carrito de la sesión. Solo un cobro a la vez por sesión;
// el carrito se vacía si el cobro tuvo éxito.
func (m *Manager) Checkout(ctx context.Context, owner entity.Session, id string) (*dto.SaleReceipt, error) {
	s, err := m.get(owner, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastSeen = m.clock.Now()
	if s.busy {
		s.mu.Unlock()
		return nil, domain.ErrCheckoutInProgress
	}
	s.busy = true
	lines := s.cart.Lines()
	s.mu.Unlock()

	items := make([]dto.CheckoutLine, 0, len(lines))
	for _, l := range lines {
		items = append(items, dto.CheckoutLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	receipt, err := m.engine.Checkout(ctx, s.owner, items)

	s.mu.Lock()
	s.busy = false
	if err == nil {
		s.cart.Clear()
	}
	s.mu.Unlock()
	return receipt, err
}

// Close cierra la sesión y su suscripción.
func (m *Manager) Close(_ context.Context, owner entity.Session, id string) error {
	if _, err := m.get(owner, id); err != nil {
		return err
	}
	m.drop(id)
	return nil
}

// Len cantidad de sesiones abiertas.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Sweep cierra las sesiones sin uso durante más de idle. Devuelve cuántas cerró.
func (m *Manager) Sweep() int {
	now := m.clock.Now()
	var stale []string
	m.mu.Lock()
	for id, s := range m.byID {
		s.mu.Lock()
		if !s.busy && now.Sub(s.lastSeen) > m.idle {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()
	for _, id := range stale {
		m.drop(id)
	}
	if len(stale) > 0 {
		m.log.Info().Int("closed", len(stale)).Msg("sesiones de caja inactivas cerradas")
	}
	return len(stale)
}

// Run barre sesiones inactivas periódicamente hasta que ctx se cancele; luego cierra todas.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Shutdown cierra todas las sesiones; Open falla a partir de aquí.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := m.byID
	m.byID = make(map[string]*session)
	m.mu.Unlock()
	m.stop()
	for _, s := range sessions {
		s.watch.Close()
	}
	m.metrics.RegisterSessions(0)
}

func (m *Manager) get(owner entity.Session, id string) (*session, error) {
	m.mu.Lock()
	s, ok := m.byID[id]
	m.mu.Unlock()
	if !ok || !sameOwner(s.owner, owner) {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *Manager) drop(id string) {
	m.mu.Lock()
	s, ok := m.byID[id]
	delete(m.byID, id)
	open := len(m.byID)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.watch.Close()
	m.metrics.RegisterSessions(open)
}

// sameOwner una sesión de caja solo la opera quien la abrió (mismo token o mismo admin).
func sameOwner(a, b entity.Session) bool {
	if a.ClassID != b.ClassID {
		return false
	}
	if a.Token != "" || b.Token != "" {
		return a.Token == b.Token
	}
	return a.UserID == b.UserID
}

// view requiere s.mu tomado.
func (s *session) view() *dto.RegisterView {
	lines := s.cart.Lines()
	out := &dto.RegisterView{
		SessionID:  s.id,
		ClassID:    s.owner.ClassID,
		Lines:      make([]dto.CartLineResponse, 0, len(lines)),
		Total:      s.cart.Total(),
		Products:   make([]dto.PublicProductResponse, 0, len(s.products)),
		Checkout:   s.busy,
		LastSynced: s.synced,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, dto.CartLineResponse{
			ProductID: l.ProductID, Name: l.Name, Price: l.Price, Quantity: l.Quantity, Subtotal: l.Subtotal(),
		})
	}
	for _, p := range s.products {
		out.Products = append(out.Products, dto.PublicProductResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
	}
	return out
}
