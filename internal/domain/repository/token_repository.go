package repository

import (
	"context"
	"time"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// TokenRepository define el puerto de persistencia para AccessToken (DIP).
// Los tokens se identifican por (classID, token) y nunca se eliminan.
type TokenRepository interface {
	Create(ctx context.Context, token *entity.AccessToken) error
	// Get devuelve nil, nil si no existe.
	Get(ctx context.Context, classID, token string) (*entity.AccessToken, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, classID, token string) (*entity.AccessToken, error)
	// MarkUsed consume el token solo si used = false; si ya estaba usado devuelve domain.ErrAlreadyUsed.
	MarkUsed(ctx context.Context, classID, token string, usedAt time.Time) error
}
