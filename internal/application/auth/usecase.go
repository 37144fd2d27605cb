// Package auth alta de clases, login del comité y cambio de contraseña.
package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación del comité.
type AuthUseCase struct {
	tx        ports.TxRunner
	classRepo repository.ClassRepository
	adminRepo repository.AdminRepository
	jwtCfg    JWTConfig
	clock     clock.Clock
	recorder  *audit.Recorder
	cost      int
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	tx ports.TxRunner,
	classRepo repository.ClassRepository,
	adminRepo repository.AdminRepository,
	jwtCfg JWTConfig,
	clk clock.Clock,
	recorder *audit.Recorder,
) *AuthUseCase {
	return &AuthUseCase{
		tx:        tx,
		classRepo: classRepo,
		adminRepo: adminRepo,
		jwtCfg:    jwtCfg,
		clock:     clk,
		recorder:  recorder,
		cost:      bcrypt.DefaultCost,
	}
}

// WithBcryptCost cambia el costo de bcrypt (tests).
func (uc *AuthUseCase) WithBcryptCost(cost int) *AuthUseCase {
	uc.cost = cost
	return uc
}

// CreateClass crea la clase y los miembros user01..userNN con la contraseña inicial,
// todos con cambio de contraseña obligatorio. Todo o nada.
func (uc *AuthUseCase) CreateClass(ctx context.Context, in dto.CreateClassRequest) (*dto.CreateClassResponse, error) {
	classID := strings.TrimSpace(in.ClassID)
	if !entity.ValidClassID(classID) {
		return nil, domain.ErrInvalidInput
	}
	if in.CommitteeCount < 1 || in.CommitteeCount > entity.MaxCommitteeMembers {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Password) < entity.MinPasswordLength {
		return nil, domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	users := make([]string, 0, in.CommitteeCount)
	err = uc.tx.RunClass(ctx, func(classRepo repository.ClassRepository, adminRepo repository.AdminRepository) error {
		if err := classRepo.Create(ctx, &entity.Class{ID: classID, CommitteeCount: in.CommitteeCount, CreatedAt: now}); err != nil {
			return err
		}
		for n := 1; n <= in.CommitteeCount; n++ {
			admin := &entity.Admin{
				ClassID:            classID,
				UserID:             entity.CommitteeUserID(n),
				PasswordHash:       string(hash),
				MustChangePassword: true,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := adminRepo.Create(ctx, admin); err != nil {
				return err
			}
			users = append(users, admin.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, entity.Session{ClassID: classID, Role: entity.RoleAdmin}, audit.ActionClassCreated,
		map[string]any{"committee_count": in.CommitteeCount})
	return &dto.CreateClassResponse{ClassID: classID, Users: users}, nil
}

// ListClasses ids de las clases registradas.
func (uc *AuthUseCase) ListClasses(ctx context.Context) (*dto.ClassListResponse, error) {
	list, err := uc.classRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ClassListResponse{Classes: make([]string, 0, len(list))}
	for _, c := range list {
		out.Classes = append(out.Classes, c.ID)
	}
	return out, nil
}

// Login verifica clase/usuario/contraseña y genera el JWT del panel.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	admin, err := uc.adminRepo.Get(ctx, strings.TrimSpace(in.ClassID), strings.TrimSpace(in.UserID))
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	resp, err := uc.issue(admin)
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, sessionOf(admin), audit.ActionLogin, nil)
	return resp, nil
}

// ChangePassword reemplaza la contraseña del miembro de la sesión y devuelve un JWT nuevo
// sin la marca de cambio obligatorio.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, s entity.Session, in dto.ChangePasswordRequest) (*dto.LoginResponse, error) {
	if len(in.NewPassword) < entity.MinPasswordLength || in.NewPassword != in.ConfirmPassword {
		return nil, domain.ErrInvalidInput
	}
	admin, err := uc.adminRepo.Get(ctx, s.ClassID, s.UserID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, domain.ErrUnauthorized
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), uc.cost)
	if err != nil {
		return nil, err
	}
	admin.PasswordHash = string(hash)
	admin.MustChangePassword = false
	admin.UpdatedAt = uc.clock.Now()
	if err := uc.adminRepo.UpdatePassword(ctx, admin); err != nil {
		return nil, err
	}
	resp, err := uc.issue(admin)
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, s, audit.ActionPasswordChanged, nil)
	return resp, nil
}

func (uc *AuthUseCase) issue(admin *entity.Admin) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Claims{
		UserID:             admin.UserID,
		ClassID:            admin.ClassID,
		Role:               entity.RoleAdmin,
		MustChangePassword: admin.MustChangePassword,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:              token,
		ClassID:            admin.ClassID,
		UserID:             admin.UserID,
		MustChangePassword: admin.MustChangePassword,
	}, nil
}

func sessionOf(a *entity.Admin) entity.Session {
	return entity.Session{ClassID: a.ClassID, UserID: a.UserID, Role: entity.RoleAdmin, MustChangePassword: a.MustChangePassword}
}
