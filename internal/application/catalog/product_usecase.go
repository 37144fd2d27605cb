// Package catalog administración de productos y el feed vivo del catálogo.
package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// ProductUseCase casos de uso CRUD para productos. Cada cambio se publica en el broker
// para que cajas y pantallas de consulta recarguen el catálogo.
type ProductUseCase struct {
	repo     repository.ProductRepository
	tx       ports.TxRunner
	broker   ports.ChangeBroker
	clock    clock.Clock
	recorder *audit.Recorder
	log      *logger.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	tx ports.TxRunner,
	broker ports.ChangeBroker,
	clk clock.Clock,
	recorder *audit.Recorder,
	log *logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{repo: repo, tx: tx, broker: broker, clock: clk, recorder: recorder, log: log.Named("catalog")}
}

// Create crea un producto. El historial de precios arranca con el precio inicial.
func (uc *ProductUseCase) Create(ctx context.Context, s entity.Session, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	now := uc.clock.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		ClassID:      s.ClassID,
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price,
		Cost:         in.Cost,
		Stock:        in.Stock,
		PriceHistory: []entity.PriceChange{{Price: in.Price, Time: now, By: s.Actor()}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.changed(ctx, s)
	uc.recorder.Record(ctx, s, audit.ActionProductCreated, map[string]any{
		"product_id": product.ID, "name": product.Name, "price": product.Price, "stock": product.Stock,
	})
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto de la clase.
func (uc *ProductUseCase) GetByID(ctx context.Context, s entity.Session, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, s.ClassID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductResponse(product), nil
}

// Update actualiza los campos presentes. Un cambio de precio agrega una entrada al historial.
// Lee y escribe con la fila bloqueada para no pisar el descuento de un cobro concurrente.
func (uc *ProductUseCase) Update(ctx context.Context, s entity.Session, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if in.Price != nil && *in.Price < 0 {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clock.Now()
	changes := map[string]any{"product_id": id}
	var product *entity.Product
	err := uc.tx.Run(ctx, func(_ repository.TokenRepository, productRepo repository.ProductRepository, _ repository.SaleRepository) error {
		var err error
		product, err = productRepo.GetForUpdate(ctx, s.ClassID, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			product.Name = strings.TrimSpace(*in.Name)
			changes["name"] = product.Name
		}
		if in.Price != nil && product.ChangePrice(*in.Price, s.Actor(), now) {
			changes["price"] = product.Price
		}
		if in.Cost != nil {
			product.Cost = *in.Cost
			changes["cost"] = product.Cost
		}
		if in.Stock != nil {
			product.Stock = *in.Stock
			changes["stock"] = product.Stock
		}
		if err := product.Validate(); err != nil {
			return err
		}
		product.UpdatedAt = now
		return productRepo.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	uc.changed(ctx, s)
	uc.recorder.Record(ctx, s, audit.ActionProductUpdated, changes)
	return ToProductResponse(product), nil
}

// Delete elimina un producto. Las ventas ya registradas conservan su copia de nombre y precio.
func (uc *ProductUseCase) Delete(ctx context.Context, s entity.Session, id string) error {
	product, err := uc.repo.GetByID(ctx, s.ClassID, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if err := uc.repo.Delete(ctx, s.ClassID, id); err != nil {
		return err
	}
	uc.changed(ctx, s)
	uc.recorder.Record(ctx, s, audit.ActionProductDeleted, map[string]any{"product_id": id, "name": product.Name})
	return nil
}

// List lista los productos de la clase.
func (uc *ProductUseCase) List(ctx context.Context, s entity.Session) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListByClass(ctx, s.ClassID)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{Items: make([]dto.ProductResponse, 0, len(list))}
	for _, p := range list {
		out.Items = append(out.Items, *ToProductResponse(p))
	}
	return out, nil
}

// ListPublic lista el catálogo sin costos (caja y consulta).
func (uc *ProductUseCase) ListPublic(ctx context.Context, s entity.Session) ([]dto.PublicProductResponse, error) {
	list, err := uc.repo.ListByClass(ctx, s.ClassID)
	if err != nil {
		return nil, err
	}
	return ToPublicProducts(list), nil
}

func (uc *ProductUseCase) changed(ctx context.Context, s entity.Session) {
	if err := uc.broker.Publish(ctx, s.ClassID); err != nil {
		uc.log.Warn().Err(err).Str("class_id", s.ClassID).Msg("no se pudo publicar el cambio de catálogo")
	}
}

// ToProductResponse convierte la entidad al DTO del panel.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	history := make([]dto.PriceChangeResponse, 0, len(p.PriceHistory))
	for _, h := range p.PriceHistory {
		history = append(history, dto.PriceChangeResponse{Price: h.Price, Time: h.Time, By: h.By})
	}
	return &dto.ProductResponse{
		ID:           p.ID,
		ClassID:      p.ClassID,
		Name:         p.Name,
		Price:        p.Price,
		Cost:         p.Cost,
		Stock:        p.Stock,
		PriceHistory: history,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToPublicProducts convierte el catálogo a la vista sin costos.
func ToPublicProducts(list []*entity.Product) []dto.PublicProductResponse {
	out := make([]dto.PublicProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.PublicProductResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
	}
	return out
}
