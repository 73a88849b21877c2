package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kassabot/raffle-backend/internal/services"
)

// SuccessionHandler handles winner handoff and raffle closing
type SuccessionHandler struct {
	successionService services.SuccessionService
	reporter          *ErrorReporter
}

// NewSuccessionHandler creates a new SuccessionHandler
func NewSuccessionHandler(successionService services.SuccessionService, reporter *ErrorReporter) *SuccessionHandler {
	return &SuccessionHandler{successionService: successionService, reporter: reporter}
}

type winnerRequest struct {
	ChatID       int64  `json:"chatId" binding:"required"`
	CallerID     int64  `json:"callerId" binding:"required"`
	TargetHandle string `json:"targetHandle" binding:"required"`
}

// Winner handles POST /commands/winner
func (h *SuccessionHandler) Winner(c *gin.Context) {
	rec := attachRecorder(c)

	var req winnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	winner, err := h.successionService.Succeed(c.Request.Context(), req.ChatID, req.CallerID, req.TargetHandle)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}

	announcement := fmt.Sprintf(services.MsgWinnerSet, winner.Handle)
	c.JSON(http.StatusOK, gin.H{
		"winnerId":     winner.UserID,
		"winnerHandle": winner.Handle,
		"announcement": announcement,
		"messages":     rec.Messages,
	})
}

type closeRequest struct {
	ChatID   int64 `json:"chatId" binding:"required"`
	CallerID int64 `json:"callerId" binding:"required"`
}

// Close handles POST /commands/close
func (h *SuccessionHandler) Close(c *gin.Context) {
	rec := attachRecorder(c)

	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.successionService.Close(c.Request.Context(), req.ChatID, req.CallerID); err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"announcement": services.MsgRaffleClosed,
		"messages":     rec.Messages,
	})
}
