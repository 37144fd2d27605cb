package repository

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia del libro de ventas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, classID, id string) (*entity.Sale, error)
	// ListByClass devuelve las ventas más recientes primero.
	ListByClass(ctx context.Context, classID string, limit, offset int) ([]*entity.Sale, error)
}
