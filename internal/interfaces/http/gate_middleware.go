package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/access"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// TokenGate valida ?classId=…&token=… contra el tipo de página esperado y reemplaza
// la sesión de la petición por la del token. Sin token acepta la sesión de admin
// que haya cargado OptionalAuth (sin cambio de contraseña pendiente); con token,
// classId debe venir en la URL.
func TokenGate(gate *access.Gate, expected entity.TokenType, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fallback *entity.Session
		if s, ok := GetSession(c); ok && s.Role == entity.RoleAdmin && !s.MustChangePassword {
			fallback = &s
		}
		s, err := gate.ResolveSession(c.UserContext(), c.Query("classId"), c.Query("token"), expected, fallback)
		if err != nil {
			return gateDenied(c, log, err)
		}
		c.Locals(LocalSession, s)
		return c.Next()
	}
}

// gateDenied como respondError, pero todo rechazo del token (incluido un token inexistente)
// indica volver a login. Los fallos del almacén no redirigen.
func gateDenied(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := ErrorBody(err)
	if status >= fiber.StatusInternalServerError {
		return respondError(c, log, err)
	}
	body.Redirect = LoginPage
	return c.Status(status).JSON(body)
}
