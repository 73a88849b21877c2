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

// ChatRepository implements the repositories.ChatRepository interface
type ChatRepository struct {
	collection *mongo.Collection
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *mongo.Database) repositories.ChatRepository {
	return &ChatRepository{
		collection: db.Collection("chats"),
	}
}

// FindByID finds a chat by its transport id
func (r *ChatRepository) FindByID(ctx context.Context, chatID int64) (*models.Chat, error) {
	var chat models.Chat
	err := r.collection.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// SaveIfAbsent creates the chat on bot-join, leaving an existing record untouched
func (r *ChatRepository) SaveIfAbsent(ctx context.Context, chat *models.Chat) error {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"title":       chat.Title,
			"adminIds":    chat.AdminIDs,
			"prevWinners": []int64{},
			"curWinner":   chat.CurWinner,
			"createdAt":   now,
			"updatedAt":   now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": chat.ChatID}, update, opts)
	return err
}

// SyncAdmins replaces the admin set with the transport's current view
func (r *ChatRepository) SyncAdmins(ctx context.Context, chatID int64, adminIDs []int64) error {
	update := bson.M{"$set": bson.M{"adminIds": adminIDs, "updatedAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetAdminIDs returns the chat's admin set
func (r *ChatRepository) GetAdminIDs(ctx context.Context, chatID int64) ([]int64, error) {
	chat, err := r.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.AdminIDs, nil
}

// GetWinnerHistory returns the append-only winner history, oldest first
func (r *ChatRepository) GetWinnerHistory(ctx context.Context, chatID int64) ([]int64, error) {
	chat, err := r.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.PrevWinners, nil
}

// GetCurrentWinner returns the current winner id, or nil when none is set
func (r *ChatRepository) GetCurrentWinner(ctx context.Context, chatID int64) (*int64, error) {
	chat, err := r.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.CurWinner, nil
}

// CycleWinner pushes the current winner onto the history and sets the new
// one in a single document update. A nil current winner pushes nothing.
func (r *ChatRepository) CycleWinner(ctx context.Context, chatID int64, newWinnerID int64) error {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"prevWinners": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$curWinner", nil}}, nil}},
				"$prevWinners",
				bson.M{"$concatArrays": bson.A{"$prevWinners", bson.A{"$curWinner"}}},
			}},
			"curWinner": newWinnerID,
			"updatedAt": "$$NOW",
		}},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": chatID}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReplaceWinner sets the current winner without touching the history
func (r *ChatRepository) ReplaceWinner(ctx context.Context, chatID int64, newWinnerID int64) error {
	update := bson.M{"$set": bson.M{"curWinner": newWinnerID, "updatedAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListChatsWhereCurrentWinner lists the chats where the user holds the
// current winner role, for the wizard's chat picker
func (r *ChatRepository) ListChatsWhereCurrentWinner(ctx context.Context, userID int64) ([]models.ChatRef, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "title": 1}).SetSort(bson.M{"title": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"curWinner": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var refs []models.ChatRef
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []models.ChatRef{}
	}
	return refs, nil
}

// Delete removes the chat record (teardown only)
func (r *ChatRepository) Delete(ctx context.Context, chatID int64) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": chatID})
	return err
}
