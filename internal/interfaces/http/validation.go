package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/pkg/errs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bindJSON decodifica el cuerpo y aplica las etiquetas `validate` del DTO.
// Cualquier fallo se reporta como invalid_input.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errs.Mark(errs.Wrap(err, "cuerpo inválido"), domain.ErrInvalidInput)
	}
	if err := validate.Struct(out); err != nil {
		return errs.Mark(errs.Wrap(err, "validación"), domain.ErrInvalidInput)
	}
	return nil
}
