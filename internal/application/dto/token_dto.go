package dto

import "time"

// IssueTokenRequest entrada para emitir un token QR.
type IssueTokenRequest struct {
	Type string `json:"type" validate:"required,oneof=view cash"`
}

// IssuedToken salida del emisor: token, URL de acceso y vencimiento.
type IssuedToken struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
