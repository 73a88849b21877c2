package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kassabot/raffle-backend/internal/services"
)

// AnalyticsHandler serves the graph and expected-value series for a
// chat's active raffle
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
	reporter         *ErrorReporter
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService services.AnalyticsService, reporter *ErrorReporter) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, reporter: reporter}
}

// Graph handles GET /raffles/:chatId/graph
func (h *AnalyticsHandler) Graph(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}
	series, err := h.analyticsService.ComputeGraph(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// Expected handles GET /raffles/:chatId/expected
func (h *AnalyticsHandler) Expected(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}
	series, err := h.analyticsService.ComputeExpectedValue(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
