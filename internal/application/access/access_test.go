package access_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/festival-pos/internal/application/access"
	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/internal/infrastructure/memory"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/errs"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

var admin = entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}

type fixture struct {
	store  *memory.Store
	clock  *clock.MockClock
	issuer *access.Issuer
	gate   *access.Gate
}

func newFixture(t *testing.T, repo repository.TokenRepository) *fixture {
	t.Helper()
	store := memory.NewStore()
	if repo == nil {
		repo = store.Tokens()
	}
	clk := clock.NewMockClock(t0)
	rec := audit.NewRecorder(store.Audit(), clk, logger.Nop())
	cfg := access.IssuerConfig{BaseURL: "https://pos.example/app", ViewTTL: entity.ViewTokenTTL, CashTTL: 600 * time.Minute}
	return &fixture{
		store:  store,
		clock:  clk,
		issuer: access.NewIssuer(repo, cfg, clk, ports.NopMetrics{}, rec, logger.Nop()),
		gate:   access.NewGate(repo, clk, ports.NopMetrics{}, logger.Nop()),
	}
}

func TestIssue_URLYVencimiento(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	issued, err := f.issuer.Issue(ctx, admin, entity.TokenTypeCash)
	require.NoError(t, err)

	assert.Len(t, issued.Token, 2*access.TokenBytes)
	assert.Equal(t, t0.Add(600*time.Minute), issued.ExpiresAt)
	assert.True(t, strings.HasPrefix(issued.URL, "https://pos.example/app/cash.html?"), issued.URL)

	u, err := url.Parse(issued.URL)
	require.NoError(t, err)
	assert.Equal(t, "g1", u.Query().Get("classId"))
	assert.Equal(t, issued.Token, u.Query().Get("token"))

	stored, err := f.store.Tokens().Get(ctx, "g1", issued.Token)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Used)
	assert.Equal(t, t0, stored.CreatedAt)

	entries, err := f.store.Audit().ListByClass(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionTokenIssued, entries[0].Action)
}

func TestIssue_TokensDistintos(t *testing.T) {
	f := newFixture(t, nil)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		issued, err := f.issuer.Issue(context.Background(), admin, entity.TokenTypeView)
		require.NoError(t, err)
		assert.False(t, seen[issued.Token])
		seen[issued.Token] = true
	}
}

func TestIssue_Validaciones(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.issuer.Issue(context.Background(), entity.Session{}, entity.TokenTypeCash)
	assert.ErrorIs(t, err, domain.ErrMissingParams)
	_, err = f.issuer.Issue(context.Background(), admin, entity.TokenType("admin"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// lostWrites acepta la escritura pero nunca la devuelve en la relectura.
type lostWrites struct{ repository.TokenRepository }

func (lostWrites) Get(context.Context, string, string) (*entity.AccessToken, error) { return nil, nil }

func TestIssue_RelecturaFallida(t *testing.T) {
	store := memory.NewStore()
	f := newFixture(t, lostWrites{store.Tokens()})

	issued, err := f.issuer.Issue(context.Background(), admin, entity.TokenTypeCash)
	assert.ErrorIs(t, err, domain.ErrTokenNotPersisted)
	assert.Nil(t, issued, "sin relectura no hay URL")
}

func TestIssue_StoreCaido(t *testing.T) {
	f := newFixture(t, nil)
	f.store.FailOn("tokens.create", errors.New("permission denied"))

	_, err := f.issuer.Issue(context.Background(), admin, entity.TokenTypeCash)
	require.Error(t, err)
	assert.True(t, errs.Is(err, domain.ErrStoreUnavailable))
}

func TestResolve_ExpiraTras600Minutos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.issuer.Issue(ctx, admin, entity.TokenTypeCash)
	require.NoError(t, err)

	classID, err := f.gate.Resolve(ctx, "g1", issued.Token, entity.TokenTypeCash)
	require.NoError(t, err)
	assert.Equal(t, "g1", classID)

	f.clock.Add(601 * time.Minute)
	_, err = f.gate.Resolve(ctx, "g1", issued.Token, entity.TokenTypeCash)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestResolve_OrdenDeRechazos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.issuer.Issue(ctx, admin, entity.TokenTypeView)
	require.NoError(t, err)

	_, err = f.gate.Resolve(ctx, "", issued.Token, entity.TokenTypeView)
	assert.ErrorIs(t, err, domain.ErrMissingParams)
	_, err = f.gate.Resolve(ctx, "g1", "", entity.TokenTypeView)
	assert.ErrorIs(t, err, domain.ErrMissingParams)
	_, err = f.gate.Resolve(ctx, "g1", "no-existe", entity.TokenTypeView)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.gate.Resolve(ctx, "g2", issued.Token, entity.TokenTypeView)
	assert.ErrorIs(t, err, domain.ErrNotFound, "el token pertenece a otra clase")
	_, err = f.gate.Resolve(ctx, "g1", issued.Token, entity.TokenTypeCash)
	assert.ErrorIs(t, err, domain.ErrWrongType)
}

func TestResolve_UsadoSiempreRechazado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.issuer.Issue(ctx, admin, entity.TokenTypeCash)
	require.NoError(t, err)
	require.NoError(t, f.store.Tokens().MarkUsed(ctx, "g1", issued.Token, t0))

	for i := 0; i < 3; i++ {
		_, err = f.gate.Resolve(ctx, "g1", issued.Token, entity.TokenTypeCash)
		assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
	}
	f.clock.Add(24 * time.Hour)
	_, err = f.gate.Resolve(ctx, "g1", issued.Token, entity.TokenTypeCash)
	assert.ErrorIs(t, err, domain.ErrExpired, "expirado se evalúa antes que usado")
}

func TestResolve_IdempotenteSinMutar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.issuer.Issue(ctx, admin, entity.TokenTypeView)
	require.NoError(t, err)

	before, err := f.store.Tokens().Get(ctx, "g1", issued.Token)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		classID, err := f.gate.Resolve(ctx, "g1", issued.Token, entity.TokenTypeView)
		require.NoError(t, err)
		assert.Equal(t, "g1", classID)
	}
	after, err := f.store.Tokens().Get(ctx, "g1", issued.Token)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestResolveSession_Fallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.gate.ResolveSession(ctx, "g1", "", entity.TokenTypeCash, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	s, err := f.gate.ResolveSession(ctx, "", "", entity.TokenTypeCash, &admin)
	require.NoError(t, err)
	assert.Equal(t, admin, s)

	issued, err := f.issuer.Issue(ctx, admin, entity.TokenTypeCash)
	require.NoError(t, err)
	s, err = f.gate.ResolveSession(ctx, "g1", issued.Token, entity.TokenTypeCash, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.Session{ClassID: "g1", Role: entity.RoleCash, Token: issued.Token}, s)
}
