package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wealthsync/internal/services"
)

// SummaryHandler serves the net worth overview.
type SummaryHandler struct {
	summaryService services.SummaryServicer
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// GetNetWorth returns total assets, total debts and net worth
// @Summary     Net worth summary
// @Description Sum the authenticated user's asset values and debt amounts
// @Tags        summary
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.NetWorthSummary "Net worth summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary [get]
func (h *SummaryHandler) GetNetWorth(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.GetNetWorth(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
