package models

import "time"

// Chat represents a group chat the bot has been added to
type Chat struct {
	ChatID      int64     `bson:"_id" json:"chatId"`
	Title       string    `bson:"title" json:"title"`
	AdminIDs    []int64   `bson:"adminIds" json:"adminIds"`
	PrevWinners []int64   `bson:"prevWinners" json:"prevWinners"` // append-only winner history, oldest first
	CurWinner   *int64    `bson:"curWinner,omitempty" json:"curWinner,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MostRecentPrevWinner returns the last element of the winner history, or
// false if there is none. Call sites must not index PrevWinners directly.
func (c *Chat) MostRecentPrevWinner() (int64, bool) {
	if len(c.PrevWinners) == 0 {
		return 0, false
	}
	return c.PrevWinners[len(c.PrevWinners)-1], true
}

// IsAdmin reports whether the given participant is in the chat's admin set
func (c *Chat) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsCurrentWinner reports whether the given participant holds the current
// winner role
func (c *Chat) IsCurrentWinner(userID int64) bool {
	return c.CurWinner != nil && *c.CurWinner == userID
}

// ChatRef is the (id, title) pair used by chat-picker keyboards
type ChatRef struct {
	ChatID int64  `bson:"_id" json:"chatId"`
	Title  string `bson:"title" json:"title"`
}
