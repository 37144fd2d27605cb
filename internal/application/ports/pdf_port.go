package ports

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// DocumentGenerator genera los PDF imprimibles del puesto.
type DocumentGenerator interface {
	// SaleReceipt comprobante de una venta.
	SaleReceipt(ctx context.Context, sale *entity.Sale) ([]byte, error)
	// AccessCard tarjeta con el QR y la URL de acceso de un token.
	AccessCard(ctx context.Context, token *entity.AccessToken, url string) ([]byte, error)
}
