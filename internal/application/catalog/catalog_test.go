package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/catalog"
	"github.com/jhoicas/festival-pos/internal/application/checkout"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/internal/infrastructure/memory"
	"github.com/jhoicas/festival-pos/internal/infrastructure/realtime"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

var (
	t0    = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	admin = entity.Session{ClassID: "g1", UserID: "user02", Role: entity.RoleAdmin}
)

func setup(t *testing.T) (*catalog.ProductUseCase, *catalog.Feed, *memory.Store, *clock.MockClock) {
	t.Helper()
	store := memory.NewStore()
	broker := realtime.NewLocalBroker()
	clk := clock.NewMockClock(t0)
	rec := audit.NewRecorder(store.Audit(), clk, logger.Nop())
	uc := catalog.NewProductUseCase(store.Products(), store, broker, clk, rec, logger.Nop())
	return uc, catalog.NewFeed(store.Products(), broker, logger.Nop()), store, clk
}

func ptr[T any](v T) *T { return &v }

// hookedProducts llama onRead después de cada lectura del producto.
type hookedProducts struct {
	repository.ProductRepository
	onRead func()
}

func (p *hookedProducts) GetByID(ctx context.Context, classID, id string) (*entity.Product, error) {
	prod, err := p.ProductRepository.GetByID(ctx, classID, id)
	p.onRead()
	return prod, err
}

func (p *hookedProducts) GetForUpdate(ctx context.Context, classID, id string) (*entity.Product, error) {
	prod, err := p.ProductRepository.GetForUpdate(ctx, classID, id)
	p.onRead()
	return prod, err
}

// hookedTx entrega a fn el repositorio de productos con el gancho de lectura.
type hookedTx struct {
	ports.TxRunner
	onRead func()
}

func (h *hookedTx) Run(ctx context.Context, fn func(repository.TokenRepository, repository.ProductRepository, repository.SaleRepository) error) error {
	return h.TxRunner.Run(ctx, func(tr repository.TokenRepository, pr repository.ProductRepository, sr repository.SaleRepository) error {
		return fn(tr, &hookedProducts{ProductRepository: pr, onRead: h.onRead}, sr)
	})
}

func TestCreateUpdate_HistorialDePrecios(t *testing.T) {
	uc, _, _, clk := setup(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, admin, dto.CreateProductRequest{Name: " Takoyaki ", Price: 400, Cost: 150, Stock: 30})
	require.NoError(t, err)
	assert.Equal(t, "Takoyaki", p.Name)
	require.Len(t, p.PriceHistory, 1)
	assert.Equal(t, dto.PriceChangeResponse{Price: 400, Time: t0, By: "user02"}, p.PriceHistory[0])

	clk.Add(time.Hour)
	p, err = uc.Update(ctx, admin, p.ID, dto.UpdateProductRequest{Price: ptr(int64(450)), Stock: ptr(int64(25))})
	require.NoError(t, err)
	assert.Equal(t, int64(450), p.Price)
	assert.Equal(t, int64(25), p.Stock)
	require.Len(t, p.PriceHistory, 2)
	assert.Equal(t, t0.Add(time.Hour), p.PriceHistory[1].Time)

	// mismo precio: el historial no crece
	p, err = uc.Update(ctx, admin, p.ID, dto.UpdateProductRequest{Price: ptr(int64(450))})
	require.NoError(t, err)
	assert.Len(t, p.PriceHistory, 2)
}

func TestUpdate_Validaciones(t *testing.T) {
	uc, _, _, _ := setup(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, admin, dto.CreateProductRequest{Name: "Ramune", Price: 150, Stock: 5})
	require.NoError(t, err)

	_, err = uc.Update(ctx, admin, p.ID, dto.UpdateProductRequest{Stock: ptr(int64(-1))})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Update(ctx, admin, p.ID, dto.UpdateProductRequest{Price: ptr(int64(-5))})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Update(ctx, admin, "no-existe", dto.UpdateProductRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Create(ctx, admin, dto.CreateProductRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other := entity.Session{ClassID: "g2", UserID: "user01", Role: entity.RoleAdmin}
	_, err = uc.GetByID(ctx, other, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "los productos son por clase")
}

func TestUpdate_CobroEntreLecturaYEscrituraNoSePierde(t *testing.T) {
	store := memory.NewStore()
	broker := realtime.NewLocalBroker()
	clk := clock.NewMockClock(t0)
	rec := audit.NewRecorder(store.Audit(), clk, logger.Nop())
	engine := checkout.NewEngine(store, broker, clk, ports.NopMetrics{}, rec, logger.Nop())
	ctx := context.Background()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "p1", ClassID: "g1", Name: "Takoyaki", Price: 400, Stock: 3, CreatedAt: t0,
	}))

	// la primera lectura del panel dispara un cobro de 3 unidades en otra caja
	var once sync.Once
	sold := make(chan error, 1)
	sell := func() {
		once.Do(func() {
			go func() {
				_, err := engine.Checkout(ctx, admin, []dto.CheckoutLine{{ProductID: "p1", Quantity: 3}})
				sold <- err
			}()
			time.Sleep(50 * time.Millisecond)
		})
	}
	uc := catalog.NewProductUseCase(
		&hookedProducts{ProductRepository: store.Products(), onRead: sell},
		&hookedTx{TxRunner: store, onRead: sell},
		broker, clk, rec, logger.Nop(),
	)

	p, err := uc.Update(ctx, admin, "p1", dto.UpdateProductRequest{Name: ptr("Takoyaki L")})
	require.NoError(t, err)
	assert.Equal(t, "Takoyaki L", p.Name)
	require.NoError(t, <-sold)

	got, err := store.Products().GetByID(ctx, "g1", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(0), got.Stock, "el renombre no puede devolver el stock vendido")
	assert.Equal(t, "Takoyaki L", got.Name)
}

func TestDeleteYListPublic(t *testing.T) {
	uc, _, store, _ := setup(t)
	ctx := context.Background()
	p1, err := uc.Create(ctx, admin, dto.CreateProductRequest{Name: "A", Price: 100, Cost: 40, Stock: 1})
	require.NoError(t, err)
	_, err = uc.Create(ctx, admin, dto.CreateProductRequest{Name: "B", Price: 200, Cost: 90, Stock: 2})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, admin, p1.ID))
	assert.ErrorIs(t, uc.Delete(ctx, admin, p1.ID), domain.ErrNotFound)

	list, err := uc.ListPublic(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dto.PublicProductResponse{ID: list[0].ID, Name: "B", Price: 200, Stock: 2}, list[0])

	entries, err := store.Audit().ListByClass(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.ActionProductDeleted, entries[0].Action)
}

func TestWatch_SnapshotInicialYCambios(t *testing.T) {
	uc, feed, _, _ := setup(t)
	ctx := context.Background()
	_, err := uc.Create(ctx, admin, dto.CreateProductRequest{Name: "A", Price: 100, Stock: 3})
	require.NoError(t, err)

	w, err := feed.Watch(ctx, "g1")
	require.NoError(t, err)
	defer w.Close()

	first := next(t, w)
	require.NoError(t, first.Err)
	require.Len(t, first.Products, 1)

	_, err = uc.Create(ctx, admin, dto.CreateProductRequest{Name: "B", Price: 100, Stock: 3})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		select {
		case s := <-w.Snapshots():
			return len(s.Products) == 2
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_CloseCierraCanal(t *testing.T) {
	_, feed, _, _ := setup(t)
	w, err := feed.Watch(context.Background(), "g1")
	require.NoError(t, err)
	w.Close()

	for range w.Snapshots() {
		// drena el snapshot inicial si quedó pendiente
	}
}

func next(t *testing.T, w *catalog.Watch) catalog.Snapshot {
	t.Helper()
	select {
	case s := <-w.Snapshots():
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no llegó el snapshot")
		return catalog.Snapshot{}
	}
}
