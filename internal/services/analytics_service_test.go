package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kassabot/raffle-backend/internal/models"
)

func testRaffle(chatID int64, rows []models.LedgerRow) *models.Raffle {
	raffle := &models.Raffle{
		RaffleID:  "r-1",
		ChatID:    chatID,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		EntryFee:  100,
		Active:    true,
	}
	raffle.SetRows(rows)
	return raffle
}

func threeEntrantRows() []models.LedgerRow {
	return []models.LedgerRow{
		{Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Entrant: "Alice", Amount: 1000},
		{Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Entrant: "Bob", Amount: 1500},
		{Timestamp: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), Entrant: "Carol", Amount: 2000},
	}
}

func newTestAnalytics(repo *fakeRaffleRepo, now time.Time) *AnalyticsServiceImpl {
	svc := NewAnalyticsService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestComputeGraph(t *testing.T) {
	repo := newFakeRaffleRepo(testRaffle(7, threeEntrantRows()))
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	svc := newTestAnalytics(repo, now)

	series, err := svc.ComputeGraph(context.Background(), 7)
	if err != nil {
		t.Fatalf("ComputeGraph: %v", err)
	}

	// 3 rows plus the now and end anchors
	if len(series.Points) != 5 {
		t.Fatalf("got %d points, want 5", len(series.Points))
	}
	if series.PoolTotal != 4500 {
		t.Errorf("PoolTotal = %d, want 4500", series.PoolTotal)
	}
	if series.Entrants != 3 {
		t.Errorf("Entrants = %d, want 3", series.Entrants)
	}

	// Cumulative pool never decreases, anchors never move it
	var prev int64
	for i, p := range series.Points {
		if p.Pool < prev {
			t.Errorf("pool decreased at point %d: %d -> %d", i, prev, p.Pool)
		}
		prev = p.Pool
	}
	last := series.Points[len(series.Points)-1]
	if !last.Anchor || last.Pool != 4500 {
		t.Errorf("final point = %+v, want anchor carrying total 4500", last)
	}

	// Timestamps ascend
	for i := 1; i < len(series.Points); i++ {
		if series.Points[i].Timestamp.Before(series.Points[i-1].Timestamp) {
			t.Errorf("points out of order at %d", i)
		}
	}

	if len(series.Fit) != len(series.FitTimes) || len(series.Fit) == 0 {
		t.Fatalf("fit series empty or mismatched: %d / %d", len(series.Fit), len(series.FitTimes))
	}
	// The prediction band contains the confidence band at every step
	for i := range series.Fit {
		if series.PredUpper[i] < series.ConfUpper[i] {
			t.Errorf("prediction band narrower than confidence band at step %d", i)
		}
		if series.PredLower[i] > series.ConfLower[i] {
			t.Errorf("prediction lower above confidence lower at step %d", i)
		}
		if series.ConfLower[i] > series.ConfUpper[i] {
			t.Errorf("inverted confidence band at step %d", i)
		}
	}
}

func TestComputeGraphRanks(t *testing.T) {
	rows := append(threeEntrantRows(), models.LedgerRow{
		Timestamp: time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC), Entrant: "Alice", Amount: 500,
	})
	repo := newFakeRaffleRepo(testRaffle(7, rows))
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	svc := newTestAnalytics(repo, now)

	series, err := svc.ComputeGraph(context.Background(), 7)
	if err != nil {
		t.Fatalf("ComputeGraph: %v", err)
	}

	// A repeat contribution adds to the pool but not to the rank
	wantRanks := []int{0, 1, 2, 2, 3, 3}
	for i, p := range series.Points {
		if p.Rank != wantRanks[i] {
			t.Errorf("point %d rank = %d, want %d", i, p.Rank, wantRanks[i])
		}
	}
	if series.Entrants != 3 {
		t.Errorf("Entrants = %d, want 3", series.Entrants)
	}
}

func TestComputeGraphTooFewRows(t *testing.T) {
	rows := threeEntrantRows()[:2]
	repo := newFakeRaffleRepo(testRaffle(7, rows))
	svc := newTestAnalytics(repo, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))

	_, err := svc.ComputeGraph(context.Background(), 7)
	if !errors.Is(err, models.ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestComputeGraphNoRaffle(t *testing.T) {
	svc := newTestAnalytics(newFakeRaffleRepo(), time.Now())
	_, err := svc.ComputeGraph(context.Background(), 7)
	if !errors.Is(err, models.ErrNoRaffle) {
		t.Fatalf("expected ErrNoRaffle, got %v", err)
	}
}

func TestComputeGraphClampsNowToEnd(t *testing.T) {
	repo := newFakeRaffleRepo(testRaffle(7, threeEntrantRows()))
	// Way past the raffle end
	svc := newTestAnalytics(repo, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	series, err := svc.ComputeGraph(context.Background(), 7)
	if err != nil {
		t.Fatalf("ComputeGraph: %v", err)
	}
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	for _, p := range series.Points {
		if p.Timestamp.After(end) {
			t.Errorf("point %v past the raffle end", p.Timestamp)
		}
	}
}

func TestComputeExpectedValue(t *testing.T) {
	rows := []models.LedgerRow{
		{Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Entrant: "Alice", Amount: 1000},
		{Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Entrant: "Bob", Amount: 1000},
		{Timestamp: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), Entrant: "Carol", Amount: 1000},
	}
	repo := newFakeRaffleRepo(testRaffle(7, rows))
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	svc := newTestAnalytics(repo, now)

	series, err := svc.ComputeExpectedValue(context.Background(), 7)
	if err != nil {
		t.Fatalf("ComputeExpectedValue: %v", err)
	}
	if series.EntryFee != 100 {
		t.Errorf("EntryFee = %d, want 100", series.EntryFee)
	}
	if len(series.Points) != 5 {
		t.Fatalf("got %d points, want 5", len(series.Points))
	}

	// First distinct entrant has no odds, value 0. Afterwards
	// -fee*(1-1/rank) + (pool-fee)/rank.
	want := []int64{0, 1900, 1400, 900, 900}
	for i, p := range series.Points {
		if p.Expected != want[i] {
			t.Errorf("point %d expected = %d, want %d", i, p.Expected, want[i])
		}
	}
	if series.Last != 900 {
		t.Errorf("Last = %d, want 900", series.Last)
	}
}

func TestComputeExpectedValueEmptyLedger(t *testing.T) {
	repo := newFakeRaffleRepo(testRaffle(7, nil))
	svc := newTestAnalytics(repo, time.Now())

	_, err := svc.ComputeExpectedValue(context.Background(), 7)
	if !errors.Is(err, models.ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}
