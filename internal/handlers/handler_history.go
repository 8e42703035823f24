package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finacore/bank-account-service/internal/core/ports/services"
	"github.com/finacore/bank-account-service/internal/dto"
	"github.com/finacore/bank-account-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// historyHandler serves the append-only audit trail.
type historyHandler struct {
	historyService portssvc.HistorySvcFacade
}

func newHistoryHandler(hs portssvc.HistorySvcFacade) *historyHandler {
	return &historyHandler{historyService: hs}
}

// registerHistoryRoutes registers the audit-trail route under accounts.
func registerHistoryRoutes(rg *gin.RouterGroup, hs portssvc.HistorySvcFacade) {
	h := newHistoryHandler(hs)
	rg.GET("/accounts/:accountNumber/history", h.listHistory)
}

func (h *historyHandler) listHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	var params dto.ListHistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	params = params.Normalized()

	entries, total, err := h.historyService.ListHistory(c.Request.Context(), accountNumber, params)
	if err != nil {
		logger.Warn("Failed to list account history", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListHistoryResponse(entries, total, params.Limit, params.Offset))
}
