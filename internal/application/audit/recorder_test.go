package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/infrastructure/memory"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

var admin = entity.Session{ClassID: "g1", UserID: "user01", Role: entity.RoleAdmin}

func TestRecorder_ListMasRecientesPrimeroYLimite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clk := clock.NewMockClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	rec := audit.NewRecorder(store.Audit(), clk, logger.Nop())

	for i := 0; i < audit.MaxListLimit+5; i++ {
		clk.Add(time.Second)
		rec.Record(ctx, admin, audit.ActionLogin, map[string]int{"n": i})
	}
	rec.Record(ctx, entity.Session{ClassID: "g2", Role: entity.RoleAdmin}, audit.ActionLogin, nil)

	def, err := rec.List(ctx, "g1", 0)
	require.NoError(t, err)
	assert.Len(t, def.Items, audit.DefaultListLimit)

	all, err := rec.List(ctx, "g1", 10_000)
	require.NoError(t, err)
	require.Len(t, all.Items, audit.MaxListLimit)
	assert.True(t, all.Items[0].CreatedAt.After(all.Items[1].CreatedAt))

	var detail map[string]int
	require.NoError(t, json.Unmarshal(all.Items[0].Detail, &detail))
	assert.Equal(t, audit.MaxListLimit+4, detail["n"])
}

func TestRecorder_FalloDeEscrituraNoInterrumpe(t *testing.T) {
	store := memory.NewStore()
	store.FailOn("audit.create", errors.New("quota exceeded"))
	rec := audit.NewRecorder(store.Audit(), clock.NewRealClock(), logger.Nop())

	assert.NotPanics(t, func() { rec.Record(context.Background(), admin, audit.ActionLogin, nil) })
}

func TestFailure_ConservaCausa(t *testing.T) {
	err := domain.StoreUnavailable(errors.New("permission denied"), "mark token used")
	d := audit.Failure(err, map[string]any{"lines": 2})

	assert.Equal(t, domain.ReasonStoreUnavailable, d["reason"])
	assert.Contains(t, d["cause"], "permission denied")
	assert.Equal(t, 2, d["lines"])
}
