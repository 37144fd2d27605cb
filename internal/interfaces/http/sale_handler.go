package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/sales"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// SaleHandler consultas del libro de ventas.
type SaleHandler struct {
	uc  *sales.UseCase
	log *logger.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.UseCase, log *logger.Logger) *SaleHandler {
	return &SaleHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar ventas (más recientes primero)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (por defecto 20, máximo 100)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.List(c.UserContext(), s, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.uc.Get(c.UserContext(), s, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de ventas por producto
// @Description  Unidades, ingresos y margen bruto de las ventas activas.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SalesSummaryResponse
// @Router       /api/sales/summary [get]
func (h *SaleHandler) Summary(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.uc.Summary(c.UserContext(), s)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Comprobante PDF de una venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	doc, filename, err := h.uc.Receipt(c.UserContext(), s, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sendPDF(c, doc, filename)
}

func sendPDF(c *fiber.Ctx, doc []byte, filename string) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(doc)
}
