package repository

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si no existe en la clase.
	GetByID(ctx context.Context, classID, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, classID, id string) (*entity.Product, error)
	ListByClass(ctx context.Context, classID string) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, classID, id string) error
	// DecrementStock descuenta qty solo si stock >= qty; si no, domain.ErrInsufficientStock.
	DecrementStock(ctx context.Context, classID, id string, qty int64) error
}
