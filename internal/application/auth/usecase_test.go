package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/auth"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/infrastructure/memory"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/jwt"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

const secret = "test-secret"

func setup(t *testing.T) (*auth.AuthUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewMockClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	rec := audit.NewRecorder(store.Audit(), clk, logger.Nop())
	uc := auth.NewAuthUseCase(store, store.Classes(), store.Admins(),
		auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "festival-pos"}, clk, rec).
		WithBcryptCost(bcrypt.MinCost)
	return uc, store
}

func TestCreateClass_CreaComite(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()

	out, err := uc.CreateClass(ctx, dto.CreateClassRequest{ClassID: "3-A", Password: "inicial1", CommitteeCount: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"user01", "user02", "user03"}, out.Users)

	a, err := store.Admins().Get(ctx, "3-A", "user03")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.MustChangePassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("inicial1")))

	_, err = uc.CreateClass(ctx, dto.CreateClassRequest{ClassID: "3-A", Password: "inicial1", CommitteeCount: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	classes, err := uc.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"3-A"}, classes.Classes)
}

func TestCreateClass_Validaciones(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()
	for _, in := range []dto.CreateClassRequest{
		{ClassID: "3 A", Password: "inicial1", CommitteeCount: 1},
		{ClassID: "3-A", Password: "corta", CommitteeCount: 1},
		{ClassID: "3-A", Password: "inicial1", CommitteeCount: 0},
		{ClassID: "3-A", Password: "inicial1", CommitteeCount: 11},
	} {
		_, err := uc.CreateClass(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", in)
	}
}

func TestCreateClass_Atomico(t *testing.T) {
	uc, store := setup(t)
	store.FailOn("admins.create", assert.AnError)

	_, err := uc.CreateClass(context.Background(), dto.CreateClassRequest{ClassID: "3-B", Password: "inicial1", CommitteeCount: 2})
	require.Error(t, err)

	c, err := store.Classes().GetByID(context.Background(), "3-B")
	require.NoError(t, err)
	assert.Nil(t, c, "sin miembros no queda la clase")
}

func TestLoginYCambioDeContrasena(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()
	_, err := uc.CreateClass(ctx, dto.CreateClassRequest{ClassID: "3-A", Password: "inicial1", CommitteeCount: 2})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{ClassID: "3-A", UserID: "user02", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{ClassID: "3-A", UserID: "user09", Password: "inicial1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	login, err := uc.Login(ctx, dto.LoginRequest{ClassID: "3-A", UserID: "user02", Password: "inicial1"})
	require.NoError(t, err)
	assert.True(t, login.MustChangePassword)
	claims, err := jwt.Parse(secret, login.Token)
	require.NoError(t, err)
	assert.True(t, claims.MustChangePassword)
	assert.Equal(t, "3-A", claims.ClassID)

	s := entity.Session{ClassID: "3-A", UserID: "user02", Role: entity.RoleAdmin, MustChangePassword: true}
	_, err = uc.ChangePassword(ctx, s, dto.ChangePasswordRequest{NewPassword: "nueva123", ConfirmPassword: "nueva124"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.ChangePassword(ctx, s, dto.ChangePasswordRequest{NewPassword: "abc", ConfirmPassword: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	changed, err := uc.ChangePassword(ctx, s, dto.ChangePasswordRequest{NewPassword: "nueva123", ConfirmPassword: "nueva123"})
	require.NoError(t, err)
	assert.False(t, changed.MustChangePassword)
	claims, err = jwt.Parse(secret, changed.Token)
	require.NoError(t, err)
	assert.False(t, claims.MustChangePassword)

	_, err = uc.Login(ctx, dto.LoginRequest{ClassID: "3-A", UserID: "user02", Password: "inicial1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	again, err := uc.Login(ctx, dto.LoginRequest{ClassID: "3-A", UserID: "user02", Password: "nueva123"})
	require.NoError(t, err)
	assert.False(t, again.MustChangePassword)
}
