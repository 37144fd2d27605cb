package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/checkout"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/infrastructure/memory"
	"github.com/jhoicas/festival-pos/internal/infrastructure/realtime"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/errs"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	broker *realtime.LocalBroker
	clock  *clock.MockClock
	engine *checkout.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	broker := realtime.NewLocalBroker()
	clk := clock.NewMockClock(t0)
	rec := audit.NewRecorder(store.Audit(), clk, logger.Nop())
	return &fixture{
		store:  store,
		broker: broker,
		clock:  clk,
		engine: checkout.NewEngine(store, broker, clk, ports.NopMetrics{}, rec, logger.Nop()),
	}
}

func (f *fixture) product(t *testing.T, id string, price, stock int64) {
	t.Helper()
	require.NoError(t, f.store.Products().Create(context.Background(), &entity.Product{
		ID: id, ClassID: "g1", Name: "prod-" + id, Price: price, Stock: stock, CreatedAt: t0,
	}))
}

func (f *fixture) cashToken(t *testing.T, token string) entity.Session {
	t.Helper()
	require.NoError(t, f.store.Tokens().Create(context.Background(), &entity.AccessToken{
		Token: token, ClassID: "g1", Type: entity.TokenTypeCash, CreatedAt: t0, ExpiresAt: t0.Add(entity.CashTokenTTL),
	}))
	return entity.Session{ClassID: "g1", Role: entity.RoleCash, Token: token}
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), "g1", id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) sales(t *testing.T) []*entity.Sale {
	t.Helper()
	list, err := f.store.Sales().ListByClass(context.Background(), "g1", 100, 0)
	require.NoError(t, err)
	return list
}

func (f *fixture) tokenUsed(t *testing.T, token string) bool {
	t.Helper()
	tok, err := f.store.Tokens().Get(context.Background(), "g1", token)
	require.NoError(t, err)
	require.NotNil(t, tok)
	return tok.Used
}

func cart(pairs ...any) []dto.CheckoutLine {
	var lines []dto.CheckoutLine
	for i := 0; i < len(pairs); i += 2 {
		lines = append(lines, dto.CheckoutLine{ProductID: pairs[i].(string), Quantity: int64(pairs[i+1].(int))})
	}
	return lines
}

func TestCheckout_StockExacto(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 3)
	s := f.cashToken(t, "t1")

	receipt, err := f.engine.Checkout(context.Background(), s, cart("p1", 3))
	require.NoError(t, err)

	assert.Equal(t, int64(300), receipt.Total)
	assert.True(t, receipt.TokenUsed)
	assert.NotEmpty(t, receipt.SaleID)
	assert.Equal(t, int64(0), f.stock(t, "p1"))
	assert.True(t, f.tokenUsed(t, "t1"))

	sales := f.sales(t)
	require.Len(t, sales, 1)
	assert.Equal(t, entity.SaleStatusActive, sales[0].Status)
	assert.True(t, sales[0].Consistent())
	assert.Equal(t, t0, sales[0].CreatedAt)
}

func TestCheckout_StockInsuficienteNoEscribe(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 2)
	s := f.cashToken(t, "t1")

	_, err := f.engine.Checkout(context.Background(), s, cart("p1", 3))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(2), f.stock(t, "p1"))
	assert.Empty(t, f.sales(t))
	assert.False(t, f.tokenUsed(t, "t1"), "un rechazo no consume el token")
}

func TestCheckout_TokenConsumidoSegundoIntento(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 10)
	s := f.cashToken(t, "t1")

	_, err := f.engine.Checkout(context.Background(), s, cart("p1", 1))
	require.NoError(t, err)

	_, err = f.engine.Checkout(context.Background(), s, cart("p1", 1))
	assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
	assert.Equal(t, int64(9), f.stock(t, "p1"))
	assert.Len(t, f.sales(t), 1)
	assert.True(t, f.tokenUsed(t, "t1"), "used se queda en true")
}

func TestCheckout_VariasLineasDescuentaExacto(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 300, 10)
	f.product(t, "p2", 150, 5)
	f.product(t, "p3", 80, 1)

	admin := entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}
	receipt, err := f.engine.Checkout(context.Background(), admin, cart("p2", 2, "p1", 4, "p3", 1))
	require.NoError(t, err)

	assert.False(t, receipt.TokenUsed)
	assert.Equal(t, int64(300*4+150*2+80), receipt.Total)
	var sum int64
	for _, it := range receipt.Items {
		assert.Equal(t, it.Price*it.Quantity, it.Subtotal)
		sum += it.Subtotal
	}
	assert.Equal(t, receipt.Total, sum)
	assert.Equal(t, "p2", receipt.Items[0].ProductID, "las líneas conservan el orden del carrito")

	assert.Equal(t, int64(6), f.stock(t, "p1"))
	assert.Equal(t, int64(3), f.stock(t, "p2"))
	assert.Equal(t, int64(0), f.stock(t, "p3"))
}

func TestCheckout_LineasRepetidasSeSuman(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 3)
	admin := entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}

	_, err := f.engine.Checkout(context.Background(), admin, cart("p1", 2, "p1", 2))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	receipt, err := f.engine.Checkout(context.Background(), admin, cart("p1", 1, "p1", 2))
	require.NoError(t, err)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, int64(3), receipt.Items[0].Quantity)
}

func TestCheckout_Rechazos(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 5)
	admin := entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}
	ctx := context.Background()

	_, err := f.engine.Checkout(ctx, admin, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	_, err = f.engine.Checkout(ctx, admin, cart("p1", 1, "borrado", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Checkout(ctx, admin, cart("p1", 0))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.engine.Checkout(ctx, admin, cart("p1", -2))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.engine.Checkout(ctx, entity.Session{}, cart("p1", 1))
	assert.ErrorIs(t, err, domain.ErrMissingParams)

	assert.Equal(t, int64(5), f.stock(t, "p1"))
	assert.Empty(t, f.sales(t))
}

func TestCheckout_MontoDesbordadoNoCobra(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 1<<62, 4)
	s := f.cashToken(t, "t1")

	_, err := f.engine.Checkout(context.Background(), s, cart("p1", 4))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Equal(t, int64(4), f.stock(t, "p1"))
	assert.Empty(t, f.sales(t))
	assert.False(t, f.tokenUsed(t, "t1"))
}

func TestCheckout_TokenExpiradoOInvalido(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 5)
	s := f.cashToken(t, "t1")
	ctx := context.Background()

	_, err := f.engine.Checkout(ctx, entity.Session{ClassID: "g1", Token: "desconocido"}, cart("p1", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.store.Tokens().Create(ctx, &entity.AccessToken{
		Token: "v1", ClassID: "g1", Type: entity.TokenTypeView, CreatedAt: t0, ExpiresAt: t0.Add(entity.ViewTokenTTL),
	}))
	_, err = f.engine.Checkout(ctx, entity.Session{ClassID: "g1", Token: "v1"}, cart("p1", 1))
	assert.ErrorIs(t, err, domain.ErrWrongType)

	f.clock.Add(entity.CashTokenTTL + time.Minute)
	_, err = f.engine.Checkout(ctx, s, cart("p1", 1))
	assert.ErrorIs(t, err, domain.ErrExpired)
	assert.Equal(t, int64(5), f.stock(t, "p1"))
}

func TestCheckout_FalloDelAlmacenDeshaceTodo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 5)
	s := f.cashToken(t, "t1")
	f.store.FailOn("tokens.mark_used", errors.New("permission denied on access_tokens"))

	_, err := f.engine.Checkout(context.Background(), s, cart("p1", 2))
	require.Error(t, err)
	assert.True(t, errs.Is(err, domain.ErrStoreUnavailable))

	f.store.FailOn("tokens.mark_used", nil)
	assert.Empty(t, f.sales(t), "la venta no queda registrada si falla el consumo del token")
	assert.Equal(t, int64(5), f.stock(t, "p1"))
	assert.False(t, f.tokenUsed(t, "t1"))

	entries, err := f.store.Audit().ListByClass(context.Background(), "g1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionCheckoutFailed, entries[0].Action)
	assert.Contains(t, string(entries[0].Detail), "permission denied on access_tokens", "la causa queda en la auditoría")
	assert.Contains(t, string(entries[0].Detail), domain.ReasonStoreUnavailable)
}

func TestCheckout_ConcurrenteNoSobrevende(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 5)
	admin := entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Checkout(context.Background(), admin, cart("p1", 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, insufficient)
	assert.Equal(t, int64(0), f.stock(t, "p1"))
	assert.Len(t, f.sales(t), 5)
}

func TestCheckout_MismoTokenEnDosCajas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 50)
	s := f.cashToken(t, "t1")

	var wg sync.WaitGroup
	results := make([]error, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.engine.Checkout(context.Background(), s, cart("p1", 1))
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range results {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
	}
	assert.Equal(t, 1, accepted, "un token se consume en un solo cobro")
	assert.Equal(t, int64(49), f.stock(t, "p1"))
}

func TestCheckout_PublicaCambio(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 5)
	sub, err := f.broker.Subscribe(context.Background(), "g1")
	require.NoError(t, err)
	defer sub.Close()

	admin := entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}
	_, err = f.engine.Checkout(context.Background(), admin, cart("p1", 1))
	require.NoError(t, err)

	select {
	case <-sub.Events():
	case <-time.After(time.Second):
		t.Fatal("el cobro debía publicar el cambio de stock")
	}
}
