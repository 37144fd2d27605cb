package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/auth"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// AuthHandler maneja alta de clases, login y cambio de contraseña.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewAuthHandler construye el handler.
func NewAuthHandler(uc *auth.AuthUseCase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// CreateClass godoc
// @Summary      Registrar clase
// @Description  Crea la clase y los miembros del comité user01..userNN con la contraseña inicial.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClassRequest  true  "Clase"
// @Success      201   {object}  dto.CreateClassResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/classes [post]
func (h *AuthHandler) CreateClass(c *fiber.Ctx) error {
	var in dto.CreateClassRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.CreateClass(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListClasses godoc
// @Summary      Listar clases
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.ClassListResponse
// @Router       /api/auth/classes [get]
func (h *AuthHandler) ListClasses(c *fiber.Ctx) error {
	out, err := h.uc.ListClasses(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Login godoc
// @Summary      Iniciar sesión del comité
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credenciales"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ChangePassword godoc
// @Summary      Cambiar contraseña
// @Description  Reemplaza la contraseña inicial y devuelve un JWT nuevo.
// @Tags         auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChangePasswordRequest  true  "Contraseña nueva"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/password [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	var in dto.ChangePasswordRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.ChangePassword(c.UserContext(), s, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
