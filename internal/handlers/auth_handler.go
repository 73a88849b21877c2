package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/services"
)

// AuthHandler handles operator authentication
type AuthHandler struct {
	authService services.AuthService
	reporter    *ErrorReporter
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService, reporter *ErrorReporter) *AuthHandler {
	return &AuthHandler{authService: authService, reporter: reporter}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.reporter, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
