package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
)

// ParticipantRepository implements the repositories.ParticipantRepository interface
type ParticipantRepository struct {
	collection  *mongo.Collection
	memberships *mongo.Collection
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *mongo.Database) repositories.ParticipantRepository {
	return &ParticipantRepository{
		collection:  db.Collection("participants"),
		memberships: db.Collection("memberships"),
	}
}

// SaveIfAbsent creates the participant on first registration; repeated
// calls only refresh the display handle
func (r *ParticipantRepository) SaveIfAbsent(ctx context.Context, participant *models.Participant) error {
	now := time.Now()
	update := bson.M{
		"$set":         bson.M{"handle": participant.Handle, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": participant.UserID}, update, opts)
	return err
}

// FindByID finds a participant by id
func (r *ParticipantRepository) FindByID(ctx context.Context, userID int64) (*models.Participant, error) {
	var participant models.Participant
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&participant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// FindByHandleInChat resolves a display handle to a participant registered
// in the given chat. Unregistered handles, including handles known globally
// but not in this chat, return models.ErrUserNotFound.
func (r *ParticipantRepository) FindByHandleInChat(ctx context.Context, chatID int64, handle string) (*models.Participant, error) {
	var participant models.Participant
	err := r.collection.FindOne(ctx, bson.M{"handle": handle}).Decode(&participant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	count, err := r.memberships.CountDocuments(ctx, bson.M{"chatId": chatID, "userId": participant.UserID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.ErrUserNotFound
	}
	return &participant, nil
}
