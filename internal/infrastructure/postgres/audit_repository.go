package postgres

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo historial append-only (audit_log).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditEntry) error {
	detail := e.Detail
	if len(detail) == 0 {
		detail = []byte("{}")
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_log (id, class_id, user_id, role, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ClassID, e.UserID, e.Role, e.Action, []byte(detail), e.CreatedAt,
	)
	if err != nil {
		return storeErr(err, "insert audit entry")
	}
	return nil
}

// ListByClass últimas entradas de la clase, más recientes primero.
func (r *AuditRepo) ListByClass(ctx context.Context, classID string, limit int) ([]*entity.AuditEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, class_id, user_id, role, action, detail, created_at
		FROM audit_log WHERE class_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2`, classID, limit)
	if err != nil {
		return nil, storeErr(err, "list audit")
	}
	defer rows.Close()

	var list []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var detail []byte
		if err := rows.Scan(&e.ID, &e.ClassID, &e.UserID, &e.Role, &e.Action, &detail, &e.CreatedAt); err != nil {
			return nil, storeErr(err, "scan audit entry")
		}
		e.Detail = detail
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list audit")
	}
	return list, nil
}
