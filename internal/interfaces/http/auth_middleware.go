package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/pkg/jwt"
)

// LocalSession clave de Locals con la entity.Session de la petición.
const LocalSession = "session"

// AuthMiddleware valida el Bearer Token JWT del panel y carga la sesión de admin en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		tokenString, ok := bearer(authHeader)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalSession, sessionFromClaims(claims))
		return c.Next()
	}
}

// OptionalAuth carga la sesión de admin si hay un Bearer válido; sin él deja pasar la petición.
// Lo usan las páginas con token QR para aceptar la sesión del panel como respaldo.
func OptionalAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearer(c.Get("Authorization")); ok && tokenString != "" {
			if claims, err := jwt.Parse(jwtSecret, tokenString); err == nil {
				c.Locals(LocalSession, sessionFromClaims(claims))
			}
		}
		return c.Next()
	}
}

// RequireRole exige que la sesión tenga uno de los roles indicados.
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// RequirePasswordChanged bloquea el panel mientras el miembro no cambie su contraseña inicial.
func RequirePasswordChanged() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := GetSession(c)
		if ok && s.MustChangePassword {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "PASSWORD_CHANGE_REQUIRED",
				Message: "debe cambiar la contraseña inicial",
			})
		}
		return c.Next()
	}
}

// GetSession devuelve la sesión cargada por los middlewares (admin o token QR).
func GetSession(c *fiber.Ctx) (entity.Session, bool) {
	s, ok := c.Locals(LocalSession).(entity.Session)
	return s, ok
}

// GetRole devuelve el rol de la sesión ("" si no hay sesión).
func GetRole(c *fiber.Ctx) string {
	s, _ := GetSession(c)
	return s.Role
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func sessionFromClaims(c *jwt.Claims) entity.Session {
	return entity.Session{
		ClassID:            c.ClassID,
		UserID:             c.UserID,
		Role:               c.Role,
		MustChangePassword: c.MustChangePassword,
	}
}
