package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// LoginPage destino de redirección cuando el token de acceso es rechazado.
const LoginPage = "login.html"

type mapping struct {
	status int
	err    error
}

var byReason = map[string]mapping{
	domain.ReasonMissingParams:          {fiber.StatusBadRequest, domain.ErrMissingParams},
	domain.ReasonNotFound:               {fiber.StatusNotFound, domain.ErrNotFound},
	domain.ReasonWrongType:              {fiber.StatusForbidden, domain.ErrWrongType},
	domain.ReasonExpired:                {fiber.StatusForbidden, domain.ErrExpired},
	domain.ReasonAlreadyUsed:            {fiber.StatusConflict, domain.ErrAlreadyUsed},
	domain.ReasonInvalidQuantity:        {fiber.StatusBadRequest, domain.ErrInvalidQuantity},
	domain.ReasonInsufficientStock:      {fiber.StatusConflict, domain.ErrInsufficientStock},
	domain.ReasonStoreUnavailable:       {fiber.StatusServiceUnavailable, domain.ErrStoreUnavailable},
	domain.ReasonEmptyCart:              {fiber.StatusBadRequest, domain.ErrEmptyCart},
	domain.ReasonUnauthenticated:        {fiber.StatusUnauthorized, domain.ErrUnauthenticated},
	domain.ReasonTokenNotPersisted:      {fiber.StatusInternalServerError, domain.ErrTokenNotPersisted},
	domain.ReasonCheckoutInProgress:     {fiber.StatusConflict, domain.ErrCheckoutInProgress},
	domain.ReasonInvalidInput:           {fiber.StatusBadRequest, domain.ErrInvalidInput},
	domain.ReasonDuplicate:              {fiber.StatusConflict, domain.ErrDuplicate},
	domain.ReasonUnauthorized:           {fiber.StatusUnauthorized, domain.ErrUnauthorized},
	domain.ReasonForbidden:              {fiber.StatusForbidden, domain.ErrForbidden},
	domain.ReasonPasswordChangeRequired: {fiber.StatusForbidden, domain.ErrPasswordChangeRequired},
}

// ErrorBody traduce err al cuerpo de respuesta y su status HTTP.
// El mensaje es siempre el del sentinel: la causa (p. ej. del almacén) queda solo en logs y auditoría.
func ErrorBody(err error) (int, dto.ErrorResponse) {
	reason := domain.Reason(err)
	m, ok := byReason[reason]
	if !ok {
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
	body := dto.ErrorResponse{Code: strings.ToUpper(reason), Message: m.err.Error()}
	if domain.IsGateDenial(err) {
		body.Redirect = LoginPage
	}
	return m.status, body
}

// respondError escribe la respuesta de error. Los 5xx se registran con la causa completa.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := ErrorBody(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("reason", domain.Reason(err)).
			Msg("error en la petición")
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler manejador global de Fiber: los *fiber.Error conservan su status, el resto pasa por la taxonomía.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fe.Code), " ", "_"))
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
		}
		return respondError(c, log, err)
	}
}
