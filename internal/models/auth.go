package models

import "time"

// LoginRequest is the operator login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Operator is an account for the maintenance API (chat teardown, admin
// re-sync), separate from raffle participants. Passwords are stored as
// bcrypt hashes and never serialized.
type Operator struct {
	Email     string    `bson:"_id" json:"email"`
	Password  string    `bson:"password" json:"-"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
