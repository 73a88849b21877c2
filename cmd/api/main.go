package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/api/routes"
	"github.com/kassabot/raffle-backend/internal/config"
	"github.com/kassabot/raffle-backend/internal/handlers"
	"github.com/kassabot/raffle-backend/internal/repositories"
	mongorepo "github.com/kassabot/raffle-backend/internal/repositories/mongodb"
	"github.com/kassabot/raffle-backend/internal/services"
	"github.com/kassabot/raffle-backend/internal/transport"
	"github.com/kassabot/raffle-backend/pkg/ledgerstage"
	"github.com/kassabot/raffle-backend/pkg/mongodb"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Connect to MongoDB
	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancel()

	// Connect to Redis for staged ledger uploads
	redisClient, err := ledgerstage.Connect(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	stage := ledgerstage.NewStore(redisClient, time.Duration(cfg.Redis.StageTTLMinutes)*time.Minute)

	// Initialize repositories
	var chatRepo repositories.ChatRepository = mongorepo.NewChatRepository(db)
	var participantRepo repositories.ParticipantRepository = mongorepo.NewParticipantRepository(db)
	var membershipRepo repositories.MembershipRepository = mongorepo.NewMembershipRepository(db)
	var raffleRepo repositories.RaffleRepository = mongorepo.NewRaffleRepository(db)
	var wizardRepo repositories.WizardRepository = mongorepo.NewWizardRepository(db)
	var operatorRepo repositories.OperatorRepository = mongorepo.NewOperatorRepository(db)

	// Outgoing messages are recorded per request and handed back to the
	// chat gateway in the HTTP response
	messenger := transport.ContextMessenger{}

	// Initialize services
	ledgerService := services.NewLedgerService()
	analyticsService := services.NewAnalyticsService(raffleRepo)
	wizardService := services.NewWizardService(wizardRepo, chatRepo, raffleRepo, ledgerService, stage, messenger, services.WizardConfig{
		IdleTimeout: time.Duration(cfg.Wizard.IdleTimeoutSeconds) * time.Second,
		DefaultFee:  cfg.Wizard.DefaultFee,
	})
	successionService := services.NewSuccessionService(chatRepo, participantRepo, raffleRepo, mongoClient)
	chatService := services.NewChatService(chatRepo, participantRepo, membershipRepo, raffleRepo, messenger)
	authService := services.NewAuthService(operatorRepo, cfg)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.SeedOperator(seedCtx); err != nil {
		seedCancel()
		log.Fatalf("Failed to seed operator account: %v", err)
	}
	seedCancel()

	// Initialize handlers
	reporter := handlers.NewErrorReporter(messenger, cfg.Operator.ErrorChatID)
	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, reporter),
		Chat:       handlers.NewChatHandler(chatService, reporter),
		Wizard:     handlers.NewWizardHandler(wizardService, ledgerService, stage, reporter),
		Succession: handlers.NewSuccessionHandler(successionService, reporter),
		Analytics:  handlers.NewAnalyticsHandler(analyticsService, reporter),
	}

	router := routes.SetupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
