package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/access"
	"github.com/jhoicas/festival-pos/internal/application/dto"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// TokenHandler emisión de tokens QR y sus tarjetas imprimibles.
type TokenHandler struct {
	issuer *access.Issuer
	cards  *access.CardPrinter
	log    *logger.Logger
}

// NewTokenHandler construye el handler.
func NewTokenHandler(issuer *access.Issuer, cards *access.CardPrinter, log *logger.Logger) *TokenHandler {
	return &TokenHandler{issuer: issuer, cards: cards, log: log}
}

// Issue godoc
// @Summary      Emitir token de acceso
// @Description  Genera un token de caja (10 h) o de consulta (14 días) y su URL para el QR.
// @Tags         tokens
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueTokenRequest  true  "Tipo de token"
// @Success      201   {object}  dto.IssuedToken
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/tokens [post]
func (h *TokenHandler) Issue(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	var in dto.IssueTokenRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.issuer.Issue(c.UserContext(), s, entity.TokenType(in.Type))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Card godoc
// @Summary      Tarjeta PDF con el QR del token
// @Tags         tokens
// @Security     Bearer
// @Produce      application/pdf
// @Param        token  path  string  true  "Token"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tokens/{token}/card [get]
func (h *TokenHandler) Card(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	doc, filename, err := h.cards.Print(c.UserContext(), s, c.Params("token"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sendPDF(c, doc, filename)
}
