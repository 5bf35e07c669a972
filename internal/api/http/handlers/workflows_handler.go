package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// WorkflowsHandler exposes workflow definitions read-only.
type WorkflowsHandler struct {
	transitions *service.TransitionService
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(transitions *service.TransitionService) *WorkflowsHandler {
	return &WorkflowsHandler{transitions: transitions}
}

// GetDefinition GET /workflows/:id.
func (h *WorkflowsHandler) GetDefinition(c *fiber.Ctx) error {
	def, err := h.transitions.Definition(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("workflow", map[string]any{"workflow_id": c.Params("id")})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DefinitionResponseFrom(def)})
}
