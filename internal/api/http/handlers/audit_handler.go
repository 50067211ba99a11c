package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	audits *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List GET /audit?skip=&limit=.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	logs, err := h.audits.List(c.UserContext(), user, pageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditLogList(logs)})
}
