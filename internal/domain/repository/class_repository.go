package repository

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// ClassRepository define el puerto de persistencia para Class.
type ClassRepository interface {
	// Create devuelve domain.ErrDuplicate si la clase ya existe.
	Create(ctx context.Context, class *entity.Class) error
	GetByID(ctx context.Context, id string) (*entity.Class, error)
	List(ctx context.Context) ([]*entity.Class, error)
}

// AdminRepository define el puerto de persistencia para los miembros del comité.
type AdminRepository interface {
	Create(ctx context.Context, admin *entity.Admin) error
	Get(ctx context.Context, classID, userID string) (*entity.Admin, error)
	UpdatePassword(ctx context.Context, admin *entity.Admin) error
}
