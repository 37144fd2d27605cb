// Package checkout motor de cobro: revalida stock, registra la venta, descuenta stock
// y consume el token de caja en una sola transacción.
package checkout

import (
	"context"
	"math"
	"sort"
	"time"

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

// ResultOK etiqueta de métricas para un cobro exitoso.
const ResultOK = "ok"

// Engine motor de cobro.
type Engine struct {
	tx       ports.TxRunner
	broker   ports.ChangeBroker
	clock    clock.Clock
	metrics  ports.Metrics
	recorder *audit.Recorder
	log      *logger.Logger
}

// NewEngine construye el motor inyectando sus dependencias.
func NewEngine(
	tx ports.TxRunner,
	broker ports.ChangeBroker,
	clk clock.Clock,
	metrics ports.Metrics,
	recorder *audit.Recorder,
	log *logger.Logger,
) *Engine {
	return &Engine{tx: tx, broker: broker, clock: clk, metrics: metrics, recorder: recorder, log: log.Named("checkout")}
}

// Checkout cobra el carrito para la clase de la sesión.
//
// Dentro de la transacción: bloquea el token de caja (si la sesión llegó con uno) y lo
// revalida, bloquea los productos en orden de id, verifica cada línea en el orden del
// carrito (not_found, invalid_quantity, insufficient_stock), crea la venta, descuenta el
// stock de forma condicional y marca el token como usado. Cualquier fallo deshace todo.
func (e *Engine) Checkout(ctx context.Context, s entity.Session, lines []dto.CheckoutLine) (*dto.SaleReceipt, error) {
	start := e.clock.Now()
	if s.ClassID == "" {
		return nil, domain.ErrMissingParams
	}
	if len(lines) == 0 {
		e.finish(ctx, s, nil, domain.ErrEmptyCart, start)
		return nil, domain.ErrEmptyCart
	}
	lines = merge(lines)

	var sale *entity.Sale
	err := e.tx.Run(ctx, func(tokenRepo repository.TokenRepository, productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		now := e.clock.Now()

		if s.Token != "" {
			token, err := tokenRepo.GetForUpdate(ctx, s.ClassID, s.Token)
			if err != nil {
				return err
			}
			if token == nil {
				return domain.ErrNotFound
			}
			if err := token.Check(entity.TokenTypeCash, now); err != nil {
				return err
			}
		}

		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		sort.Strings(ids)
		products := make(map[string]*entity.Product, len(ids))
		for _, id := range ids {
			p, err := productRepo.GetForUpdate(ctx, s.ClassID, id)
			if err != nil {
				return err
			}
			products[id] = p
		}

		items := make([]entity.SaleItem, 0, len(lines))
		for _, l := range lines {
			p := products[l.ProductID]
			if p == nil {
				return domain.ErrNotFound
			}
			if l.Quantity <= 0 {
				return domain.ErrInvalidQuantity
			}
			if l.Quantity > p.Stock {
				return domain.ErrInsufficientStock
			}
			items = append(items, entity.NewSaleItem(p.ID, p.Name, p.Price, l.Quantity))
		}

		var err error
		sale, err = entity.NewSale(s.ClassID, items, now)
		if err != nil {
			return err
		}
		sale.ID = uuid.New().String()
		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}
		for _, it := range sale.Items {
			if err := productRepo.DecrementStock(ctx, s.ClassID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if s.Token != "" {
			if err := tokenRepo.MarkUsed(ctx, s.ClassID, s.Token, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.finish(ctx, s, lines, err, start)
		return nil, err
	}

	if perr := e.broker.Publish(ctx, s.ClassID); perr != nil {
		// La venta ya está confirmada; los suscriptores se ponen al día en el próximo cambio.
		e.log.Warn().Err(perr).Str("class_id", s.ClassID).Msg("no se pudo publicar el cambio de stock")
	}
	e.finish(ctx, s, lines, nil, start)
	e.recorder.Record(ctx, s, audit.ActionCheckout, map[string]any{
		"sale_id":    sale.ID,
		"total":      sale.Total,
		"items":      len(sale.Items),
		"token_used": s.Token != "",
	})
	return toReceipt(sale, s.Token != ""), nil
}

func (e *Engine) finish(ctx context.Context, s entity.Session, lines []dto.CheckoutLine, err error, start time.Time) {
	result := ResultOK
	if err != nil {
		result = domain.Reason(err)
	}
	e.metrics.CheckoutFinished(result, e.clock.Now().Sub(start))
	if err == nil {
		return
	}
	ev := e.log.Info()
	if result == domain.ReasonStoreUnavailable || result == domain.ReasonInternal {
		ev = e.log.Error().Err(err)
	}
	ev.Str("class_id", s.ClassID).Str("reason", result).Int("lines", len(lines)).Msg("cobro rechazado")
	e.recorder.Record(ctx, s, audit.ActionCheckoutFailed, audit.Failure(err, map[string]any{"lines": lines}))
}

// merge junta líneas repetidas del mismo producto conservando el orden de aparición.
// Si alguna de las repetidas trae cantidad <= 0 la línea fusionada queda en 0 (inválida).
func merge(lines []dto.CheckoutLine) []dto.CheckoutLine {
	out := make([]dto.CheckoutLine, 0, len(lines))
	idx := make(map[string]int, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			if l.Quantity <= 0 || out[i].Quantity <= 0 || out[i].Quantity > math.MaxInt64-l.Quantity {
				out[i].Quantity = 0
			} else {
				out[i].Quantity += l.Quantity
			}
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func toReceipt(sale *entity.Sale, tokenUsed bool) *dto.SaleReceipt {
	return &dto.SaleReceipt{
		SaleID:    sale.ID,
		Total:     sale.Total,
		Items:     ToSaleItems(sale.Items),
		CreatedAt: sale.CreatedAt,
		TokenUsed: tokenUsed,
	}
}

// ToSaleItems convierte las líneas de una venta al DTO.
func ToSaleItems(items []entity.SaleItem) []dto.SaleItemResponse {
	out := make([]dto.SaleItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		})
	}
	return out
}
