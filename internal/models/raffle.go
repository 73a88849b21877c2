package models

import "time"

// LedgerRow is a single normalized contribution: when, who, how much.
// Amount is in integer minor currency units. Rows are transient; they are
// persisted only inside a raffle's ledger snapshot.
type LedgerRow struct {
	Timestamp time.Time `json:"timestamp"`
	Entrant   string    `json:"entrant"`
	Amount    int64     `json:"amount"`
}

// Raffle represents one configured pooled-contribution event in a chat.
// At most one raffle per chat may have Active set; the mongodb repository
// enforces this with a partial unique index.
type Raffle struct {
	RaffleID  string    `bson:"_id" json:"raffleId"`
	ChatID    int64     `bson:"chatId" json:"chatId"`
	CreatorID int64     `bson:"creatorId" json:"creatorId"`
	StartDate time.Time `bson:"startDate" json:"startDate"`
	EndDate   time.Time `bson:"endDate" json:"endDate"`
	EntryFee  int64     `bson:"entryFee" json:"entryFee"` // minor units
	Active    bool      `bson:"active" json:"active"`

	// Ledger snapshot as parallel arrays, mirroring the wire/store layout
	Dates   []time.Time `bson:"dates" json:"dates"`
	Entries []string    `bson:"entries" json:"entries"`
	Amounts []int64     `bson:"amounts" json:"amounts"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Rows converts the stored parallel arrays back into ledger rows
func (r *Raffle) Rows() []LedgerRow {
	n := len(r.Dates)
	if len(r.Entries) < n {
		n = len(r.Entries)
	}
	if len(r.Amounts) < n {
		n = len(r.Amounts)
	}
	rows := make([]LedgerRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, LedgerRow{Timestamp: r.Dates[i], Entrant: r.Entries[i], Amount: r.Amounts[i]})
	}
	return rows
}

// SetRows replaces the ledger snapshot from normalized rows
func (r *Raffle) SetRows(rows []LedgerRow) {
	r.Dates = make([]time.Time, len(rows))
	r.Entries = make([]string, len(rows))
	r.Amounts = make([]int64, len(rows))
	for i, row := range rows {
		r.Dates[i] = row.Timestamp
		r.Entries[i] = row.Entrant
		r.Amounts[i] = row.Amount
	}
}

// RaffleData carries the window, fee and ledger of a raffle through the
// wizard and the import CLI before a Raffle record exists
type RaffleData struct {
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	EntryFee  int64       `json:"entryFee"`
	Rows      []LedgerRow `json:"rows"`
}
