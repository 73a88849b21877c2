package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kassabot/raffle-backend/internal/config"
	"github.com/kassabot/raffle-backend/internal/handlers"
	"github.com/kassabot/raffle-backend/internal/middleware"
)

// Handlers bundles the wired handlers for router setup
type Handlers struct {
	Auth       *handlers.AuthHandler
	Chat       *handlers.ChatHandler
	Wizard     *handlers.WizardHandler
	Succession *handlers.SuccessionHandler
	Analytics  *handlers.AnalyticsHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.Default()

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes: the chat gateway relays user commands here
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		// Auth routes
		auth := public.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		// Chat lifecycle and membership
		public.POST("/chats", h.Chat.BotAdded)
		public.PUT("/chats/:chatId/admins", h.Chat.SyncAdmins)
		public.GET("/users/:userId/raffle-chats", h.Chat.ListRaffleChats)

		// Relayed chat commands
		commands := public.Group("/commands")
		{
			commands.POST("/hello", h.Chat.Hello)
			commands.POST("/upload", h.Wizard.Upload)
			commands.POST("/callback", h.Wizard.Callback)
			commands.POST("/winner", h.Succession.Winner)
			commands.POST("/close", h.Succession.Close)
		}

		// Raffle analytics
		raffles := public.Group("/raffles")
		{
			raffles.GET("/:chatId/graph", h.Analytics.Graph)
			raffles.GET("/:chatId/expected", h.Analytics.Expected)
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		protected.DELETE("/chats/:chatId", h.Chat.Teardown)
	}

	return router
}
