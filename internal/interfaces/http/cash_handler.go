package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/checkout"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/application/register"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// CashHandler página de caja: sesiones con carrito en el servidor y cobro directo.
// Todas las rutas pasan antes por TokenGate con tokens de caja.
type CashHandler struct {
	registers *register.Manager
	engine    *checkout.Engine
	log       *logger.Logger
}

// NewCashHandler construye el handler.
func NewCashHandler(registers *register.Manager, engine *checkout.Engine, log *logger.Logger) *CashHandler {
	return &CashHandler{registers: registers, engine: engine, log: log}
}

// Open godoc
// @Summary      Abrir sesión de caja
// @Description  Crea el carrito del servidor y lo sincroniza con el catálogo vivo.
// @Tags         cash
// @Produce      json
// @Param        classId  query  string  false  "Clase"
// @Param        token    query  string  false  "Token de caja"
// @Success      201  {object}  dto.RegisterView
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/cash/sessions [post]
func (h *CashHandler) Open(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.registers.Open(c.UserContext(), s)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// View godoc
// @Summary      Estado de la sesión de caja
// @Tags         cash
// @Produce      json
// @Param        id       path   string  true   "ID de la sesión"
// @Param        classId  query  string  false  "Clase"
// @Param        token    query  string  false  "Token de caja"
// @Success      200  {object}  dto.RegisterView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cash/sessions/{id} [get]
func (h *CashHandler) View(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.registers.View(c.UserContext(), s, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Agregar o quitar unidades del carrito
// @Tags         cash
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la sesión"
// @Param        body  body  dto.AdjustItemRequest  true  "Producto y delta"
// @Success      200   {object}  dto.RegisterView
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash/sessions/{id}/items [post]
func (h *CashHandler) Adjust(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	var in dto.AdjustItemRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.registers.Adjust(c.UserContext(), s, c.Params("id"), in.ProductID, in.Delta)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Checkout godoc
// @Summary      Cobrar el carrito de la sesión
// @Tags         cash
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      201  {object}  dto.SaleReceipt
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cash/sessions/{id}/checkout [post]
func (h *CashHandler) Checkout(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.registers.Checkout(c.UserContext(), s, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Close godoc
// @Summary      Cerrar sesión de caja
// @Tags         cash
// @Param        id   path  string  true  "ID de la sesión"
// @Success      204
// @Router       /api/cash/sessions/{id} [delete]
func (h *CashHandler) Close(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	if err := h.registers.Close(c.UserContext(), s, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DirectCheckout godoc
// @Summary      Cobro sin sesión de caja
// @Description  Cobra el carrito enviado por el cliente; el stock se revalida en la transacción.
// @Tags         cash
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "Carrito"
// @Success      201   {object}  dto.SaleReceipt
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash/checkout [post]
func (h *CashHandler) DirectCheckout(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	var in dto.CheckoutRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.engine.Checkout(c.UserContext(), s, in.Items)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
