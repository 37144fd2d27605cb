// Package pdf genera los documentos imprimibles del puesto con Maroto v2:
// el comprobante de venta y la tarjeta de acceso con el QR del token.
//
// Comprobante (A6 vertical):
//
//	┌──────────────────────────────┐
//	│  CLASE + N° venta + fecha    │
//	│  ──────────────────────────  │
//	│  Cant | Producto | Subtotal  │
//	│  ──────────────────────────  │
//	│  TOTAL                       │
//	└──────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

var _ ports.DocumentGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 190, Green: 30, Blue: 45}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.DocumentGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	location *time.Location
	yen      *message.Printer
}

// NewMarotoPDFGenerator construye el generador. loc es la zona horaria impresa (nil = UTC).
func NewMarotoPDFGenerator(loc *time.Location) *MarotoPDFGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoPDFGenerator{location: loc, yen: message.NewPrinter(language.Japanese)}
}

// SaleReceipt genera el comprobante de una venta.
func (g *MarotoPDFGenerator) SaleReceipt(_ context.Context, sale *entity.Sale) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A6).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Comprobante de venta", true).
		WithAuthor(sale.ClassID, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.receiptHeader(sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(itemsHeaderRow())
	for _, r := range g.itemRows(sale.Items) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalRow(sale))
	if sale.Status == entity.SaleStatusCanceled {
		m.AddRows(row.New(8).Add(col.New(12).Add(text.New("ANULADA", props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: colorPrimary, Top: 1,
		}))))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// AccessCard genera la tarjeta imprimible con el QR de acceso.
func (g *MarotoPDFGenerator) AccessCard(_ context.Context, token *entity.AccessToken, url string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A6).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acceso "+string(token.Type), true).
		WithAuthor(token.ClassID, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(row.New(14).Add(
		col.New(12).Add(
			text.New(cardTitle(token.Type), props.Text{
				Style: fontstyle.Bold, Size: 13, Align: align.Center, Color: colorPrimary, Top: 1,
			}),
			text.New("Clase "+token.ClassID, props.Text{Size: 9, Align: align.Center, Top: 8, Color: colorGray}),
		),
	))
	m.AddRows(row.New(70).Add(
		col.New(2),
		col.New(8).Add(code.NewQr(url, props.Rect{Percent: 95, Center: true})),
		col.New(2),
	))
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New("Válido hasta "+g.format(token.ExpiresAt), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Center, Top: 2,
		}),
	)))
	m.AddRows(row.New(12).Add(col.New(12).Add(
		text.New(url, props.Text{Size: 6, Align: align.Center, Color: colorGray, Top: 1}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar tarjeta de acceso: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) receiptHeader(sale *entity.Sale) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(sale.ClassID, props.Text{Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1}),
			text.New("Venta "+shortID(sale.ID), props.Text{Size: 7, Top: 8, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE", props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 1, Color: colorPrimary}),
			text.New(g.format(sale.CreatedAt), props.Text{Size: 7, Align: align.Right, Top: 8, Color: colorGray}),
		),
	)
}

func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Align: a, Top: 1}))
	}
	return row.New(6).Add(
		h("Cant.", 2, align.Center),
		h("Producto", 6, align.Left),
		h("Subtotal", 4, align.Right),
	)
}

func (g *MarotoPDFGenerator) itemRows(items []entity.SaleItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(fmt.Sprintf("%d", it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(
				text.New(it.ProductName, props.Text{Size: 8, Top: 0.5}),
				text.New(g.Yen(it.Price)+" c/u", props.Text{Size: 6, Top: 3.5, Color: colorGray}),
			),
			col.New(4).Add(text.New(g.Yen(it.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return rows
}

func (g *MarotoPDFGenerator) totalRow(sale *entity.Sale) core.Row {
	return row.New(10).Add(
		col.New(6).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 2})),
		col.New(6).Add(text.New(g.Yen(sale.Total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// Yen formatea un monto entero con separador de miles: 1200 → "¥1,200".
func (g *MarotoPDFGenerator) Yen(amount int64) string {
	return g.yen.Sprintf("¥%d", amount)
}

func (g *MarotoPDFGenerator) format(t time.Time) string {
	return t.In(g.location).Format("2006/01/02 15:04")
}

func cardTitle(t entity.TokenType) string {
	if t == entity.TokenTypeCash {
		return "CAJA"
	}
	return "CONSULTA"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
