package ports

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios
// atados a esa transacción. Si fn devuelve error no queda ningún efecto persistido.
type TxRunner interface {
	// Run agrupa lo necesario para un cobro: token, productos y libro de ventas.
	Run(ctx context.Context, fn func(
		tokenRepo repository.TokenRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error

	// RunClass agrupa el alta de una clase con sus miembros del comité.
	RunClass(ctx context.Context, fn func(
		classRepo repository.ClassRepository,
		adminRepo repository.AdminRepository,
	) error) error
}
