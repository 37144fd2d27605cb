// Package sales consultas sobre el libro de ventas.
package sales

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/festival-pos/internal/application/checkout"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

// summaryPageSize tamaño de página al recorrer el libro completo para el resumen.
const summaryPageSize = 500

// UseCase consultas de ventas, resumen y comprobantes.
type UseCase struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	generator ports.DocumentGenerator
}

// NewUseCase construye el caso de uso.
func NewUseCase(sales repository.SaleRepository, products repository.ProductRepository, generator ports.DocumentGenerator) *UseCase {
	return &UseCase{sales: sales, products: products, generator: generator}
}

// List ventas de la clase, más recientes primero.
func (uc *UseCase) List(ctx context.Context, s entity.Session, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.DefaultPage()
	list, err := uc.sales.ListByClass(ctx, s.ClassID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.SaleListResponse{
		Items: make([]dto.SaleResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, sale := range list {
		out.Items = append(out.Items, *toSaleResponse(sale))
	}
	return out, nil
}

// Get una venta de la clase.
func (uc *UseCase) Get(ctx context.Context, s entity.Session, id string) (*dto.SaleResponse, error) {
	sale, err := uc.get(ctx, s, id)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

// Receipt genera el PDF del comprobante. Devuelve bytes y nombre de archivo.
func (uc *UseCase) Receipt(ctx context.Context, s entity.Session, id string) ([]byte, string, error) {
	sale, err := uc.get(ctx, s, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.SaleReceipt(ctx, sale)
	if err != nil {
		return nil, "", fmt.Errorf("sales: generar comprobante: %w", err)
	}
	return pdf, fmt.Sprintf("recibo-%s.pdf", shortID(sale.ID)), nil
}

// Summary acumula unidades e ingresos por producto de las ventas activas (las anuladas
// no cuentan). El costo y el margen bruto usan el costo actual de cada producto.
func (uc *UseCase) Summary(ctx context.Context, s entity.Session) (*dto.SalesSummaryResponse, error) {
	products, err := uc.products.ListByClass(ctx, s.ClassID)
	if err != nil {
		return nil, err
	}
	costs := make(map[string]int64, len(products))
	for _, p := range products {
		costs[p.ID] = p.Cost
	}

	out := &dto.SalesSummaryResponse{}
	byProduct := map[string]*dto.ProductSalesSummary{}
	for offset := 0; ; offset += summaryPageSize {
		page, err := uc.sales.ListByClass(ctx, s.ClassID, summaryPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, sale := range page {
			if sale.Status != entity.SaleStatusActive {
				out.CanceledCount++
				continue
			}
			out.SalesCount++
			out.Revenue += sale.Total
			for _, it := range sale.Items {
				ps, ok := byProduct[it.ProductID]
				if !ok {
					ps = &dto.ProductSalesSummary{ProductID: it.ProductID, ProductName: it.ProductName}
					byProduct[it.ProductID] = ps
				}
				ps.Units += it.Quantity
				ps.Revenue += it.Subtotal
				ps.Cost += costs[it.ProductID] * it.Quantity
			}
		}
		if len(page) < summaryPageSize {
			break
		}
	}

	out.Products = make([]dto.ProductSalesSummary, 0, len(byProduct))
	for _, ps := range byProduct {
		ps.MarginPercent = marginPercent(ps.Revenue, ps.Cost)
		out.Cost += ps.Cost
		out.Products = append(out.Products, *ps)
	}
	sort.Slice(out.Products, func(i, j int) bool {
		if out.Products[i].Revenue != out.Products[j].Revenue {
			return out.Products[i].Revenue > out.Products[j].Revenue
		}
		return out.Products[i].ProductID < out.Products[j].ProductID
	})
	out.MarginPercent = marginPercent(out.Revenue, out.Cost)
	return out, nil
}

func (uc *UseCase) get(ctx context.Context, s entity.Session, id string) (*entity.Sale, error) {
	sale, err := uc.sales.GetByID(ctx, s.ClassID, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// marginPercent (ingreso - costo) / ingreso * 100 con un decimal. "" si no hubo ingresos.
func marginPercent(revenue, cost int64) string {
	if revenue == 0 {
		return ""
	}
	r := decimal.NewFromInt(revenue)
	return r.Sub(decimal.NewFromInt(cost)).Div(r).Mul(decimal.NewFromInt(100)).StringFixed(1)
}

func toSaleResponse(sale *entity.Sale) *dto.SaleResponse {
	return &dto.SaleResponse{
		ID:        sale.ID,
		ClassID:   sale.ClassID,
		Status:    sale.Status,
		Total:     sale.Total,
		Items:     checkout.ToSaleItems(sale.Items),
		CreatedAt: sale.CreatedAt,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
