package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
)

// MembershipRepository implements the repositories.MembershipRepository interface
type MembershipRepository struct {
	collection *mongo.Collection
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *mongo.Database) repositories.MembershipRepository {
	return &MembershipRepository{
		collection: db.Collection("memberships"),
	}
}

// Register inserts the (chat, user) pair. The unique index turns duplicate
// registrations into models.ErrAlreadyRegistered.
func (r *MembershipRepository) Register(ctx context.Context, chatID, userID int64) error {
	membership := models.Membership{ChatID: chatID, UserID: userID, CreatedAt: time.Now()}
	_, err := r.collection.InsertOne(ctx, membership)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrAlreadyRegistered
	}
	return err
}

// ListMembers lists the registered participant ids of a chat
func (r *MembershipRepository) ListMembers(ctx context.Context, chatID int64) ([]int64, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"chatId": chatID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var memberships []models.Membership
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// IsMember reports whether the user is registered in the chat
func (r *MembershipRepository) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"chatId": chatID, "userId": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListChatsWithRaffle lists the user's chats that have a raffle record,
// joined against the raffles and chats collections
func (r *MembershipRepository) ListChatsWithRaffle(ctx context.Context, userID int64) ([]models.ChatRef, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "raffles",
			"localField":   "chatId",
			"foreignField": "chatId",
			"as":           "raffles",
		}}},
		{{Key: "$match", Value: bson.M{"raffles.0": bson.M{"$exists": true}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "chats",
			"localField":   "chatId",
			"foreignField": "_id",
			"as":           "chat",
		}}},
		{{Key: "$unwind", Value: "$chat"}},
		{{Key: "$project", Value: bson.M{"_id": "$chatId", "title": "$chat.title"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
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

// DeleteByChat removes all memberships of a chat (teardown only)
func (r *MembershipRepository) DeleteByChat(ctx context.Context, chatID int64) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"chatId": chatID})
	return err
}
