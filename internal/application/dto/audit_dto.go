package dto

import (
	"encoding/json"
	"time"
)

// AuditEntryResponse entrada del historial.
type AuditEntryResponse struct {
	ID        string          `json:"id"`
	ClassID   string          `json:"class_id"`
	UserID    string          `json:"user_id"`
	Role      string          `json:"role"`
	Action    string          `json:"action"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditListResponse historial más reciente primero.
type AuditListResponse struct {
	Items []AuditEntryResponse `json:"items"`
}
