package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/catalog"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// ProductHandler maneja las peticiones HTTP para Product (panel de administración).
type ProductHandler struct {
	uc  *catalog.ProductUseCase
	log *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.ProductUseCase, log *logger.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	var in dto.CreateProductRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Create(c.UserContext(), s, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.uc.GetByID(c.UserContext(), s, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos de la clase
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.uc.List(c.UserContext(), s)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Description  Solo se aplican los campos presentes. Un cambio de precio queda en el historial.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	var in dto.UpdateProductRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Update(c.UserContext(), s, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	if err := h.uc.Delete(c.UserContext(), s, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ViewProducts godoc
// @Summary      Catálogo público de la clase
// @Description  Nombre, precio y stock. Requiere token de consulta o sesión de admin.
// @Tags         view
// @Produce      json
// @Param        classId  query  string  false  "Clase"
// @Param        token    query  string  false  "Token de consulta"
// @Success      200  {array}   dto.PublicProductResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/view/products [get]
func (h *ProductHandler) ViewProducts(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.uc.ListPublic(c.UserContext(), s)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
