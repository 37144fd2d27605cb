package entity

import (
	"encoding/json"
	"time"
)

// AuditEntry registro del historial de operaciones de una clase.
type AuditEntry struct {
	ID        string
	ClassID   string
	UserID    string
	Role      string
	Action    string
	Detail    json.RawMessage
	CreatedAt time.Time
}
