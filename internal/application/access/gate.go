package access

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// Gate valida el token presentado antes de dar acceso a la página de su rol.
// No modifica nada: el consumo del token lo hace el cobro.
type Gate struct {
	repo    repository.TokenRepository
	clock   clock.Clock
	metrics ports.Metrics
	log     *logger.Logger
}

// NewGate construye el control de acceso.
func NewGate(repo repository.TokenRepository, clk clock.Clock, metrics ports.Metrics, log *logger.Logger) *Gate {
	return &Gate{repo: repo, clock: clk, metrics: metrics, log: log.Named("gate")}
}

// Resolve evalúa en orden: parámetros, existencia, tipo, expiración, uso.
// Devuelve la clase canónica guardada en el token.
func (g *Gate) Resolve(ctx context.Context, classID, token string, expected entity.TokenType) (string, error) {
	record, err := g.lookup(ctx, classID, token, expected)
	if err != nil {
		return "", err
	}
	return record.ClassID, nil
}

// ResolveSession construye la sesión explícita de la página. Sin token cae en la
// sesión previa (admin autenticado); si no hay ninguna, unauthenticated.
func (g *Gate) ResolveSession(ctx context.Context, classID, token string, expected entity.TokenType, fallback *entity.Session) (entity.Session, error) {
	if token == "" {
		if fallback != nil && fallback.ClassID != "" {
			s := *fallback
			return s, nil
		}
		g.deny(domain.ErrUnauthenticated, classID)
		return entity.Session{}, domain.ErrUnauthenticated
	}
	record, err := g.lookup(ctx, classID, token, expected)
	if err != nil {
		return entity.Session{}, err
	}
	role := entity.RoleView
	if expected == entity.TokenTypeCash {
		role = entity.RoleCash
	}
	return entity.Session{ClassID: record.ClassID, Role: role, Token: record.Token}, nil
}

func (g *Gate) lookup(ctx context.Context, classID, token string, expected entity.TokenType) (*entity.AccessToken, error) {
	if classID == "" || token == "" {
		g.deny(domain.ErrMissingParams, classID)
		return nil, domain.ErrMissingParams
	}
	record, err := g.repo.Get(ctx, classID, token)
	if err != nil {
		g.log.Error().Err(err).Str("class_id", classID).Msg("no se pudo leer el token")
		g.deny(err, classID)
		return nil, err
	}
	if record == nil {
		g.deny(domain.ErrNotFound, classID)
		return nil, domain.ErrNotFound
	}
	if err := record.Check(expected, g.clock.Now()); err != nil {
		g.deny(err, classID)
		return nil, err
	}
	if record.ClassID == "" {
		record.ClassID = classID
	}
	return record, nil
}

func (g *Gate) deny(err error, classID string) {
	reason := domain.Reason(err)
	g.metrics.GateDenied(reason)
	g.log.Debug().Str("class_id", classID).Str("reason", reason).Msg("acceso denegado")
}
