// Package audit historial de operaciones por clase.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// Acciones registradas.
const (
	ActionLogin           = "login"
	ActionClassCreated    = "class.created"
	ActionPasswordChanged = "password.changed"
	ActionProductCreated  = "product.created"
	ActionProductUpdated  = "product.updated"
	ActionProductDeleted  = "product.deleted"
	ActionTokenIssued     = "token.issued"
	ActionCheckout        = "checkout.completed"
	ActionCheckoutFailed  = "checkout.failed"
)

// Límites del listado.
const (
	DefaultListLimit = 50
	MaxListLimit     = 300
)

// Recorder escribe entradas de auditoría. Un fallo al escribir se registra en el log
// y nunca interrumpe la operación del usuario.
type Recorder struct {
	repo  repository.AuditRepository
	clock clock.Clock
	log   *logger.Logger
}

// NewRecorder construye el recorder.
func NewRecorder(repo repository.AuditRepository, clk clock.Clock, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, clock: clk, log: log.Named("audit")}
}

// Record guarda una entrada. detail se serializa a JSON (nil = sin detalle).
func (r *Recorder) Record(ctx context.Context, s entity.Session, action string, detail any) {
	entry := &entity.AuditEntry{
		ID:        uuid.New().String(),
		ClassID:   s.ClassID,
		UserID:    s.UserID,
		Role:      s.Role,
		Action:    action,
		CreatedAt: r.clock.Now(),
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			r.log.Warn().Err(err).Str("action", action).Msg("detalle de auditoría no serializable")
		} else {
			entry.Detail = raw
		}
	}
	// La entrada no debe perderse si el request se canceló justo después de la operación.
	if err := r.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		r.log.Error().Err(err).
			Str("class_id", s.ClassID).
			Str("action", action).
			Str("reason", domain.Reason(err)).
			Msg("no se pudo registrar la auditoría")
	}
}

// Failure detalle estándar de una operación fallida: código de taxonomía y causa completa.
func Failure(err error, extra map[string]any) map[string]any {
	d := map[string]any{
		"reason": domain.Reason(err),
		"cause":  err.Error(),
	}
	for k, v := range extra {
		d[k] = v
	}
	return d
}

// List devuelve las últimas entradas de la clase. limit <= 0 usa el valor por defecto.
func (r *Recorder) List(ctx context.Context, classID string, limit int) (*dto.AuditListResponse, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	entries, err := r.repo.ListByClass(ctx, classID, limit)
	if err != nil {
		return nil, err
	}
	out := &dto.AuditListResponse{Items: make([]dto.AuditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Items = append(out.Items, dto.AuditEntryResponse{
			ID:        e.ID,
			ClassID:   e.ClassID,
			UserID:    e.UserID,
			Role:      e.Role,
			Action:    e.Action,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}
