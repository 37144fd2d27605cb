package entity

import (
	"time"

	"github.com/jhoicas/festival-pos/internal/domain"
)

// TokenType rol al que da acceso un token (una página por rol).
type TokenType string

const (
	TokenTypeView TokenType = "view"
	TokenTypeCash TokenType = "cash"
)

// Vigencia por defecto de cada tipo de token.
const (
	ViewTokenTTL = 14 * 24 * 60 * time.Minute
	CashTokenTTL = 10 * 60 * time.Minute
)

// Valid indica si el tipo es uno de los conocidos.
func (t TokenType) Valid() bool {
	return t == TokenTypeView || t == TokenTypeCash
}

// Page devuelve la página a la que apunta la URL de acceso.
func (t TokenType) Page() string {
	return string(t) + ".html"
}

// AccessToken credencial temporal (QR) para la página de caja o de consulta de una clase.
// Nunca se borra: queda para auditoría.
type AccessToken struct {
	Token     string // hex de ≥24 bytes aleatorios
	ClassID   string // clase canónica del token
	Type      TokenType
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
}

// Expired es monotónico: a partir de ExpiresAt el token deja de servir.
func (t *AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Check aplica, en orden, tipo → expiración → uso. El primer fallo gana.
func (t *AccessToken) Check(expected TokenType, now time.Time) error {
	if t.Type != expected {
		return domain.ErrWrongType
	}
	if t.Expired(now) {
		return domain.ErrExpired
	}
	if t.Used {
		return domain.ErrAlreadyUsed
	}
	return nil
}

// MarkUsed consume el token (used: false → true, una sola vez).
func (t *AccessToken) MarkUsed(now time.Time) error {
	if t.Used {
		return domain.ErrAlreadyUsed
	}
	t.Used = true
	t.UsedAt = &now
	return nil
}
