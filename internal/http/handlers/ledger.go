package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/agencyledger-backend/internal/http/response"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type LedgerHandler struct {
	ledger services.LedgerService
}

func NewLedgerHandler(ledger services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// POST /api/obligations/:id/entries
// body: { "amount": "400.00", "category": "advance", "recorded_at": "...", "metadata": {...} }
func (h *LedgerHandler) Append(c *gin.Context) {
	obligationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount     amountInput    `json:"amount" binding:"required"`
		Category   string         `json:"category"`
		RecordedAt *time.Time     `json:"recorded_at"`
		Metadata   map[string]any `json:"metadata"`
	}
	if !bindJSON(c, &req) {
		return
	}
	amount, err := req.Amount.parse("LedgerHandler.Append")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	res, err := h.ledger.Append(c.Request.Context(), services.AppendEntryRequest{
		ObligationID: obligationID,
		Amount:       amount,
		Category:     req.Category,
		RecordedAt:   req.RecordedAt,
		Metadata:     req.Metadata,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/obligations/:id/entries
func (h *LedgerHandler) ListByObligation(c *gin.Context) {
	obligationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entries, err := h.ledger.ListByObligation(c.Request.Context(), obligationID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// PATCH /api/entries/:id
// body: { "amount": "125.50" }
func (h *LedgerHandler) UpdateAmount(c *gin.Context) {
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount amountInput `json:"amount" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	amount, err := req.Amount.parse("LedgerHandler.UpdateAmount")
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	res, err := h.ledger.UpdateAmount(c.Request.Context(), entryID, amount)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// DELETE /api/entries/:id
func (h *LedgerHandler) Remove(c *gin.Context) {
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.ledger.Remove(c.Request.Context(), entryID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, res)
}
