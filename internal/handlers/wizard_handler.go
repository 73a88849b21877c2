package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/services"
	"github.com/kassabot/raffle-backend/internal/transport"
	"github.com/kassabot/raffle-backend/pkg/ledgerstage"
)

// WizardHandler handles the raffle-setup conversation endpoints
type WizardHandler struct {
	wizardService services.WizardService
	ledgerService services.LedgerService
	stage         *ledgerstage.Store
	reporter      *ErrorReporter
}

// NewWizardHandler creates a new WizardHandler
func NewWizardHandler(
	wizardService services.WizardService,
	ledgerService services.LedgerService,
	stage *ledgerstage.Store,
	reporter *ErrorReporter,
) *WizardHandler {
	return &WizardHandler{
		wizardService: wizardService,
		ledgerService: ledgerService,
		stage:         stage,
		reporter:      reporter,
	}
}

type uploadForm struct {
	HostID         int64 `form:"hostId" binding:"required"`
	ConversationID int64 `form:"conversationId" binding:"required"`
}

// Upload handles POST /commands/upload. The gateway posts the ledger file
// a winner sent in private chat; a valid file is staged and the setup
// conversation opens.
func (h *WizardHandler) Upload(c *gin.Context) {
	rec := attachRecorder(c)

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ledger file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}

	ctx := c.Request.Context()
	ok, err := h.ledgerService.ValidateBytes(data)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.MsgInvalidFile})
		return
	}

	key, err := h.stage.Put(ctx, data)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}

	result, err := h.wizardService.Start(ctx, form.HostID, form.ConversationID, key)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": services.MsgNotWinner})
			return
		}
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stage":    result.Stage,
		"messages": rec.Messages,
	})
}

type callbackRequest struct {
	HostID         int64  `json:"hostId" binding:"required"`
	HostHandle     string `json:"hostHandle"`
	ConversationID int64  `json:"conversationId" binding:"required"`
	Data           string `json:"data" binding:"required"`
}

// Callback handles POST /commands/callback: one button press relayed by
// the gateway
func (h *WizardHandler) Callback(c *gin.Context) {
	rec := attachRecorder(c)

	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.wizardService.HandleCallback(c.Request.Context(), req.HostID, req.HostHandle, req.ConversationID, req.Data)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stage":    result.Stage,
		"messages": rec.Messages,
	})
}

// attachRecorder gives the request its own outgoing-message recorder and
// rebinds the request context so every downstream call sees it
func attachRecorder(c *gin.Context) *transport.Recorder {
	rec := transport.NewRecorder()
	c.Request = c.Request.WithContext(transport.WithRecorder(c.Request.Context(), rec))
	return rec
}
