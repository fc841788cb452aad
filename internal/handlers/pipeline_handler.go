package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/logger"
	"wealthsync/internal/refresh"
)

// RefreshController is the part of the price refresher exposed over HTTP.
type RefreshController interface {
	TriggerAsync(ctx context.Context) error
	Running() bool
	LastReport() *refresh.CycleReport
}

// PipelineHandler serves the machine-to-machine price refresh endpoints.
type PipelineHandler struct {
	refresher RefreshController
	// cycles outlive the triggering request, so they run under the server's context
	baseCtx context.Context
}

// NewPipelineHandler creates a new PipelineHandler. A nil refresher means
// price refresh is disabled and both endpoints answer 503.
func NewPipelineHandler(baseCtx context.Context, refresher RefreshController) *PipelineHandler {
	return &PipelineHandler{refresher: refresher, baseCtx: baseCtx}
}

// RefreshStatusResponse describes the refresher state.
type RefreshStatusResponse struct {
	Running    bool                 `json:"running"`
	LastReport *refresh.CycleReport `json:"last_report"`
}

// TriggerRefresh starts a manual price refresh cycle
// @Summary     Trigger price refresh
// @Description Start a refresh cycle for all real-time tracked assets. Returns immediately.
// @Tags        pipeline
// @Produce     json
// @Security    PipelineKey
// @Success     202 {object} map[string]string "Refresh started"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     409 {object} ErrorResponse "A cycle is already running"
// @Failure     503 {object} ErrorResponse "Price refresh disabled"
// @Router      /pipeline/refresh [post]
func (h *PipelineHandler) TriggerRefresh(c *gin.Context) {
	if h.refresher == nil {
		respondWithError(c, apperrors.ErrRefreshDisabled)
		return
	}

	if err := h.refresher.TriggerAsync(h.baseCtx); err != nil {
		if errors.Is(err, refresh.ErrCycleInProgress) {
			respondWithError(c, apperrors.ErrRefreshInProgress)
			return
		}
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	logger.Get().Infow("manual price refresh triggered", "client_ip", c.ClientIP())
	c.JSON(http.StatusAccepted, gin.H{"message": "Price refresh started"})
}

// RefreshStatus reports whether a cycle is running and the last cycle's report
// @Summary     Price refresh status
// @Description Report whether a refresh cycle is running, with the outcome of the last finished cycle
// @Tags        pipeline
// @Produce     json
// @Security    PipelineKey
// @Success     200 {object} RefreshStatusResponse "Refresher status"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Price refresh disabled"
// @Router      /pipeline/refresh/status [get]
func (h *PipelineHandler) RefreshStatus(c *gin.Context) {
	if h.refresher == nil {
		respondWithError(c, apperrors.ErrRefreshDisabled)
		return
	}

	c.JSON(http.StatusOK, RefreshStatusResponse{
		Running:    h.refresher.Running(),
		LastReport: h.refresher.LastReport(),
	})
}
