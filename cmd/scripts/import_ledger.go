package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kassabot/raffle-backend/internal/config"
	"github.com/kassabot/raffle-backend/internal/models"
	mongorepo "github.com/kassabot/raffle-backend/internal/repositories/mongodb"
	"github.com/kassabot/raffle-backend/internal/services"
	"github.com/kassabot/raffle-backend/pkg/mongodb"
)

// Imports a ledger export straight into a chat's active raffle, for
// operators fixing up data without going through the chat flow.
//
// Usage: import_ledger <chatId> <ledger file>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	mongoURI := config.GetEnv("MONGODB_URI", "")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is required")
	}
	dbName := config.GetEnv("MONGODB_DATABASE", "raffle")

	if len(os.Args) < 3 {
		log.Fatal("Usage: import_ledger <chatId> <ledger file>")
	}
	chatID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Fatalf("Invalid chat ID %q: %v", os.Args[1], err)
	}
	path := os.Args[2]

	client, err := mongodb.NewClient(mongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raffleRepo := mongorepo.NewRaffleRepository(db)
	raffle, err := raffleRepo.FindActiveByChat(ctx, chatID)
	if err != nil {
		log.Fatalf("Failed to load active raffle for chat %d: %v", chatID, err)
	}

	ledger := services.NewLedgerService()
	ok, err := ledger.Validate(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	if !ok {
		log.Fatalf("%s is not a readable ledger export", path)
	}

	rows, err := ledger.Ingest(path, raffle.StartDate, raffle.EndDate)
	if err != nil {
		log.Fatalf("Failed to ingest %s: %v", path, err)
	}

	data := models.RaffleData{
		StartDate: raffle.StartDate,
		EndDate:   raffle.EndDate,
		EntryFee:  raffle.EntryFee,
		Rows:      rows,
	}
	if err := raffleRepo.Update(ctx, raffle.RaffleID, data); err != nil {
		log.Fatalf("Failed to update raffle %s: %v", raffle.RaffleID, err)
	}

	log.Printf("Imported %d rows into raffle %s (chat %d)", len(rows), raffle.RaffleID, chatID)
}
