package models

import "time"

// Participant represents a registered raffle participant
type Participant struct {
	UserID    int64     `bson:"_id" json:"userId"`
	Handle    string    `bson:"handle" json:"handle"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Membership is the unique (participant, chat) pair created on registration.
// It is never updated; it is deleted only with chat teardown.
type Membership struct {
	UserID    int64     `bson:"userId" json:"userId"`
	ChatID    int64     `bson:"chatId" json:"chatId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
