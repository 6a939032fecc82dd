package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/http/response"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type ObligationHandler struct {
	obligations services.ObligationService
}

func NewObligationHandler(obligations services.ObligationService) *ObligationHandler {
	return &ObligationHandler{obligations: obligations}
}

// POST /api/obligations
// body: { "kind": "team", "project_id": "...", "assignment_id": "...", "total_amount": "2500", "description": "..." }
func (h *ObligationHandler) Create(c *gin.Context) {
	var req struct {
		Kind         string         `json:"kind" binding:"required"`
		ProjectID    *uuid.UUID     `json:"project_id"`
		AssignmentID *uuid.UUID     `json:"assignment_id"`
		TotalAmount  optionalAmount `json:"total_amount"`
		Description  string         `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	total, _, err := req.TotalAmount.parse("ObligationHandler.Create")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	o, err := h.obligations.Create(c.Request.Context(), services.CreateObligationRequest{
		Kind:         req.Kind,
		ProjectID:    req.ProjectID,
		AssignmentID: req.AssignmentID,
		TotalAmount:  total,
		Description:  req.Description,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"obligation": o})
}

// GET /api/obligations/:id
func (h *ObligationHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.obligations.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"obligation": o})
}

// DELETE /api/obligations/:id
func (h *ObligationHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.obligations.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, res)
}
