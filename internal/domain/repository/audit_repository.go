package repository

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// AuditRepository historial append-only de operaciones.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	// ListByClass devuelve las últimas entradas (más recientes primero).
	ListByClass(ctx context.Context, classID string, limit int) ([]*entity.AuditEntry, error)
}
