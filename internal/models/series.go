package models

import "time"

// PoolPoint is one materialized ledger row: the cumulative pool at a
// timestamp plus the zero-based count of distinct entrants seen so far
type PoolPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Entrant   string    `json:"entrant,omitempty"`
	Pool      int64     `json:"pool"`     // cumulative, minor units
	Rank      int       `json:"rank"`     // distinct entrants so far, minus 1
	Amount    int64     `json:"amount"`   // this row's contribution
	Anchor    bool      `json:"anchor"`   // synthetic zero-amount row
}

// GraphSeries is the running-total chart data: the pool points, the fitted
// trend and its 95% confidence and prediction bands at each interpolation
// timestamp. Amount-like values are minor units.
type GraphSeries struct {
	ChatID     int64       `json:"chatId"`
	Points     []PoolPoint `json:"points"`
	PoolTotal  int64       `json:"poolTotal"`
	Entrants   int         `json:"entrants"`
	FitTimes   []time.Time `json:"fitTimes"`
	Fit        []float64   `json:"fit"`
	ConfLower  []float64   `json:"confLower"`
	ConfUpper  []float64   `json:"confUpper"`
	PredLower  []float64   `json:"predLower"`
	PredUpper  []float64   `json:"predUpper"`
}

// ExpectedPoint is the expected net value to the next entrant at one row
type ExpectedPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Expected  int64     `json:"expected"` // minor units, rounded
}

// ExpectedSeries is the per-entrant expected-value chart data
type ExpectedSeries struct {
	ChatID   int64           `json:"chatId"`
	EntryFee int64           `json:"entryFee"`
	Points   []ExpectedPoint `json:"points"`
	Last     int64           `json:"last"`
}
