package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/agencyledger-backend/internal/http/response"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type ReconcileHandler struct {
	reconcile services.ReconcileService
}

func NewReconcileHandler(reconcile services.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcile: reconcile}
}

// POST /api/reconcile
func (h *ReconcileHandler) ReconcileAll(c *gin.Context) {
	report, err := h.reconcile.ReconcileAll(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}
