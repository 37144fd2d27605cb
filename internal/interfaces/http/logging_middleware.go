package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/pkg/logger"
)

// RequestLogger registra cada petición con método, ruta, status y duración.
// El token QR nunca se registra: solo la ruta sin query string.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			// El ErrorHandler escribe la respuesta después; el status aún es el de Fiber.
			status, _ = ErrorBody(err)
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http")
		return err
	}
}
