// Package access emisión y validación de los tokens QR de acceso a caja y consulta.
package access

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/errs"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// TokenBytes entropía de cada token (se codifica en hex: 48 caracteres).
const TokenBytes = 24

// IssuerConfig vigencias por tipo y URL base de las páginas.
type IssuerConfig struct {
	BaseURL string
	ViewTTL time.Duration
	CashTTL time.Duration
}

// TTL vigencia para el tipo de token.
func (c IssuerConfig) TTL(t entity.TokenType) time.Duration {
	if t == entity.TokenTypeView {
		return c.ViewTTL
	}
	return c.CashTTL
}

// DefaultIssuerConfig vigencias estándar (consulta 14 días, caja 10 horas).
func DefaultIssuerConfig(baseURL string) IssuerConfig {
	return IssuerConfig{BaseURL: baseURL, ViewTTL: entity.ViewTokenTTL, CashTTL: entity.CashTokenTTL}
}

// Issuer emite tokens y arma la URL de acceso.
type Issuer struct {
	repo     repository.TokenRepository
	cfg      IssuerConfig
	clock    clock.Clock
	metrics  ports.Metrics
	recorder *audit.Recorder
	log      *logger.Logger
	random   func([]byte) (int, error)
}

// NewIssuer construye el emisor.
func NewIssuer(
	repo repository.TokenRepository,
	cfg IssuerConfig,
	clk clock.Clock,
	metrics ports.Metrics,
	recorder *audit.Recorder,
	log *logger.Logger,
) *Issuer {
	return &Issuer{
		repo:     repo,
		cfg:      cfg,
		clock:    clk,
		metrics:  metrics,
		recorder: recorder,
		log:      log.Named("issuer"),
		random:   rand.Read,
	}
}

// Issue genera un token para la clase de la sesión, lo persiste y lo vuelve a leer
// antes de reportar éxito. Si la relectura no lo encuentra no se entrega URL.
func (uc *Issuer) Issue(ctx context.Context, s entity.Session, tokenType entity.TokenType) (*dto.IssuedToken, error) {
	if s.ClassID == "" {
		return nil, domain.ErrMissingParams
	}
	if !tokenType.Valid() {
		return nil, domain.ErrInvalidInput
	}

	buf := make([]byte, TokenBytes)
	if _, err := uc.random(buf); err != nil {
		return nil, errs.Wrap(err, "generar token")
	}
	now := uc.clock.Now()
	token := &entity.AccessToken{
		Token:     hex.EncodeToString(buf),
		ClassID:   s.ClassID,
		Type:      tokenType,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.TTL(tokenType)),
	}
	if err := uc.repo.Create(ctx, token); err != nil {
		uc.log.Error().Err(err).Str("class_id", s.ClassID).Str("reason", domain.Reason(err)).Msg("no se pudo guardar el token")
		return nil, err
	}

	stored, err := uc.repo.Get(ctx, s.ClassID, token.Token)
	if err != nil {
		uc.log.Error().Err(err).Str("class_id", s.ClassID).Msg("no se pudo releer el token")
		return nil, err
	}
	if stored == nil {
		uc.log.Error().Str("class_id", s.ClassID).Str("type", string(tokenType)).Msg("token guardado pero no legible")
		return nil, domain.ErrTokenNotPersisted
	}

	accessURL := AccessURL(uc.cfg.BaseURL, tokenType, stored.ClassID, stored.Token)
	uc.metrics.TokenIssued(string(tokenType))
	uc.recorder.Record(ctx, s, audit.ActionTokenIssued, map[string]any{
		"type":       tokenType,
		"expires_at": stored.ExpiresAt,
	})
	return &dto.IssuedToken{
		Token:     stored.Token,
		Type:      string(stored.Type),
		URL:       accessURL,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// AccessURL arma "{base}{page}.html?classId=…&token=…".
func AccessURL(baseURL string, t entity.TokenType, classID, token string) string {
	base := baseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	q := url.Values{}
	q.Set("classId", classID)
	q.Set("token", token)
	return base + t.Page() + "?" + q.Encode()
}
