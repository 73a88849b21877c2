package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kassabot/raffle-backend/internal/services"
)

// ChatHandler handles chat roster and membership endpoints
type ChatHandler struct {
	chatService services.ChatService
	reporter    *ErrorReporter
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService services.ChatService, reporter *ErrorReporter) *ChatHandler {
	return &ChatHandler{chatService: chatService, reporter: reporter}
}

type botAddedRequest struct {
	ChatID      int64  `json:"chatId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	AdderID     int64  `json:"adderId" binding:"required"`
	AdderHandle string `json:"adderHandle"`
}

// BotAdded handles POST /chats: the gateway reports the bot joined a chat
func (h *ChatHandler) BotAdded(c *gin.Context) {
	rec := attachRecorder(c)

	var req botAddedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.chatService.BotAdded(c.Request.Context(), req.ChatID, req.Title, req.AdderID, req.AdderHandle); err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chatId": req.ChatID, "messages": rec.Messages})
}

type helloRequest struct {
	ChatID int64  `json:"chatId" binding:"required"`
	UserID int64  `json:"userId" binding:"required"`
	Handle string `json:"handle" binding:"required"`
}

// Hello handles POST /commands/hello: a member opts into raffles
func (h *ChatHandler) Hello(c *gin.Context) {
	var req helloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.chatService.RegisterMember(c.Request.Context(), req.ChatID, req.UserID, req.Handle); err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": services.MsgRegistered})
}

type syncAdminsRequest struct {
	AdminIDs []int64 `json:"adminIds" binding:"required"`
}

// SyncAdmins handles PUT /chats/:chatId/admins
func (h *ChatHandler) SyncAdmins(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}
	var req syncAdminsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.chatService.SyncAdmins(c.Request.Context(), chatID, req.AdminIDs); err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": chatID})
}

// ListRaffleChats handles GET /users/:userId/raffle-chats: the chats the
// user can request graphs for
func (h *ChatHandler) ListRaffleChats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	chats, err := h.chatService.ListChatsWithRaffle(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// Teardown handles DELETE /chats/:chatId (operator only)
func (h *ChatHandler) Teardown(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}
	if err := h.chatService.Teardown(c.Request.Context(), chatID); err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": chatID})
}
