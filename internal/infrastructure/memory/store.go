// Package memory almacén en proceso con la misma semántica que el de PostgreSQL
// (claves por clase, decrementos condicionales, transacciones con rollback).
// Se usa con STORE_DRIVER=memory y en los tests.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

type key struct {
	classID string
	id      string
}

type state struct {
	tokens   map[key]entity.AccessToken
	products map[key]entity.Product
	sales    map[key]entity.Sale
	saleSeq  map[string][]string // ids por clase en orden de inserción
	classes  map[string]entity.Class
	admins   map[key]entity.Admin
	audit    map[string][]entity.AuditEntry
}

func newState() *state {
	return &state{
		tokens:   make(map[key]entity.AccessToken),
		products: make(map[key]entity.Product),
		sales:    make(map[key]entity.Sale),
		saleSeq:  make(map[string][]string),
		classes:  make(map[string]entity.Class),
		admins:   make(map[key]entity.Admin),
		audit:    make(map[string][]entity.AuditEntry),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v.Clone()
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.saleSeq {
		c.saleSeq[k] = append([]string(nil), v...)
	}
	for k, v := range s.classes {
		c.classes[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	for k, v := range s.audit {
		c.audit[k] = append([]entity.AuditEntry(nil), v...)
	}
	return c
}

// Store almacén en memoria. Las transacciones se serializan con un único mutex.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), faults: make(map[string]error)}
}

// FailOn hace que la operación op ("products.decrement", "sales.create", ...) falle
// con err marcado como store_unavailable. err nil quita el fallo.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// access ejecuta fn sobre el estado; fuera de transacción toma el mutex por operación.
type access func(op string, fn func(*state) error) error

func (s *Store) direct(op string, fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(op); err != nil {
		return err
	}
	return fn(s.st)
}

// fault requiere s.mu tomado.
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		return domain.StoreUnavailable(err, op)
	}
	return nil
}

// Repositorios fuera de transacción.
func (s *Store) Tokens() repository.TokenRepository     { return &tokenRepo{do: s.direct} }
func (s *Store) Products() repository.ProductRepository { return &productRepo{do: s.direct} }
func (s *Store) Sales() repository.SaleRepository       { return &saleRepo{do: s.direct} }
func (s *Store) Classes() repository.ClassRepository    { return &classRepo{do: s.direct} }
func (s *Store) Admins() repository.AdminRepository     { return &adminRepo{do: s.direct} }
func (s *Store) Audit() repository.AuditRepository      { return &auditRepo{do: s.direct} }

// inTx trabaja sobre una copia del estado que solo se publica si fn termina sin error.
func (s *Store) inTx(ctx context.Context, fn func(do access) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	do := func(op string, f func(*state) error) error {
		if err := s.fault(op); err != nil {
			return err
		}
		return f(work)
	}
	if err := fn(do); err != nil {
		return err
	}
	if err := s.fault("tx.commit"); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Run implementa ports.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	tokenRepo repository.TokenRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return s.inTx(ctx, func(do access) error {
		return fn(&tokenRepo{do: do}, &productRepo{do: do}, &saleRepo{do: do})
	})
}

// RunClass implementa ports.TxRunner.
func (s *Store) RunClass(ctx context.Context, fn func(
	classRepo repository.ClassRepository,
	adminRepo repository.AdminRepository,
) error) error {
	return s.inTx(ctx, func(do access) error {
		return fn(&classRepo{do: do}, &adminRepo{do: do})
	})
}
