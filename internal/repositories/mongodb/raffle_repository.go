package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
)

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("raffles"),
	}
}

// FindActiveByChat returns the chat's single active raffle
func (r *RaffleRepository) FindActiveByChat(ctx context.Context, chatID int64) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"chatId": chatID, "active": true}).Decode(&raffle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoRaffle
		}
		return nil, err
	}
	return &raffle, nil
}

// Create inserts a new active raffle. The partial unique index over
// (chatId, active:true) makes exactly one of two concurrent inserts win;
// the loser gets models.ErrPersistence and can re-read the active record.
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	raffle.Active = true
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, raffle)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: active raffle already exists for chat %d", models.ErrPersistence, raffle.ChatID)
	}
	return err
}

// Update replaces the window, fee and ledger snapshot of an existing raffle
func (r *RaffleRepository) Update(ctx context.Context, raffleID string, data models.RaffleData) error {
	dates := make([]time.Time, len(data.Rows))
	entries := make([]string, len(data.Rows))
	amounts := make([]int64, len(data.Rows))
	for i, row := range data.Rows {
		dates[i] = row.Timestamp
		entries[i] = row.Entrant
		amounts[i] = row.Amount
	}

	update := bson.M{"$set": bson.M{
		"startDate": data.StartDate,
		"endDate":   data.EndDate,
		"entryFee":  data.EntryFee,
		"dates":     dates,
		"entries":   entries,
		"amounts":   amounts,
		"updatedAt": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": raffleID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNoRaffle
	}
	return nil
}

// CloseActive deactivates the chat's active raffle, preserving the record
// for history. Closing when nothing is active is a no-op, which keeps
// duplicate close commands idempotent.
func (r *RaffleRepository) CloseActive(ctx context.Context, chatID int64) error {
	update := bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"chatId": chatID, "active": true}, update)
	return err
}

// DeleteByChat removes all raffle records of a chat (teardown only)
func (r *RaffleRepository) DeleteByChat(ctx context.Context, chatID int64) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"chatId": chatID})
	return err
}

// EnsureRaffleIndexes creates the partial unique index enforcing at most
// one active raffle per chat
func EnsureRaffleIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("raffles").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chatId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"active": true}).
			SetName("one_active_raffle_per_chat"),
	})
	return err
}
