package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// AuditHandler historial de operaciones de la clase.
type AuditHandler struct {
	recorder *audit.Recorder
	log      *logger.Logger
}

// NewAuditHandler construye el handler.
func NewAuditHandler(recorder *audit.Recorder, log *logger.Logger) *AuditHandler {
	return &AuditHandler{recorder: recorder, log: log}
}

// List godoc
// @Summary      Historial de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Cantidad (por defecto 50, máximo 300)"
// @Success      200  {object}  dto.AuditListResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	s, _ := GetSession(c)
	out, err := h.recorder.List(c.UserContext(), s.ClassID, c.QueryInt("limit", audit.DefaultListLimit))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
