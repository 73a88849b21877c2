package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/exp/slog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/repositories"
)

// Compile-time check to ensure AnalyticsServiceImpl implements AnalyticsService
var _ AnalyticsService = (*AnalyticsServiceImpl)(nil)

// AnalyticsServiceImpl computes chart series from a raffle's ledger
// snapshot. Both entry points are pure reads; nothing here mutates the
// raffle record.
type AnalyticsServiceImpl struct {
	raffleRepo repositories.RaffleRepository
	now        func() time.Time
}

// NewAnalyticsService creates a new AnalyticsServiceImpl
func NewAnalyticsService(raffleRepo repositories.RaffleRepository) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{
		raffleRepo: raffleRepo,
		now:        time.Now,
	}
}

// materialize builds the ordered ledger: anchors at now (clamped to the
// end date) and at the end date, ascending time order, cumulative pool and
// the zero-based distinct-entrant rank per row. Anchors carry an empty
// entrant name and a zero amount, so they extend the series across the
// whole window without moving the pool.
func (s *AnalyticsServiceImpl) materialize(raffle *models.Raffle) ([]models.PoolPoint, error) {
	if raffle == nil {
		return nil, models.ErrNoRaffle
	}
	rows := raffle.Rows()
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: raffle %s has an empty ledger", models.ErrNoEntries, raffle.RaffleID)
	}

	nowTS := s.now()
	if nowTS.After(raffle.EndDate) {
		nowTS = raffle.EndDate
	}

	points := make([]models.PoolPoint, 0, len(rows)+2)
	for _, row := range rows {
		points = append(points, models.PoolPoint{
			Timestamp: row.Timestamp,
			Entrant:   row.Entrant,
			Amount:    row.Amount,
		})
	}
	points = append(points,
		models.PoolPoint{Timestamp: nowTS, Anchor: true},
		models.PoolPoint{Timestamp: raffle.EndDate, Anchor: true},
	)

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	var pool int64
	seen := make(map[string]bool)
	for i := range points {
		pool += points[i].Amount
		if !seen[points[i].Entrant] {
			seen[points[i].Entrant] = true
		}
		points[i].Pool = pool
		points[i].Rank = len(seen) - 1
	}
	return points, nil
}

// ComputeGraph produces the cumulative pool series plus an OLS trend with
// 95% confidence and prediction bands. The trailing anchor only extends
// the x-axis; it is excluded from the fit.
func (s *AnalyticsServiceImpl) ComputeGraph(ctx context.Context, chatID int64) (*models.GraphSeries, error) {
	raffle, err := s.raffleRepo.FindActiveByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	// n-2 degrees of freedom require at least 3 observations; below that
	// the fit is underdetermined
	if len(raffle.Dates) < 3 {
		return nil, fmt.Errorf("%w: %d rows is too few to fit a trend", models.ErrNoEntries, len(raffle.Dates))
	}

	points, err := s.materialize(raffle)
	if err != nil {
		return nil, err
	}

	fitPoints := points[:len(points)-1]
	t0 := points[0].Timestamp
	xs := make([]float64, len(fitPoints))
	ys := make([]float64, len(fitPoints))
	for i, p := range fitPoints {
		xs[i] = p.Timestamp.Sub(t0).Seconds()
		ys[i] = float64(p.Pool)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	n := float64(len(xs))
	xMean, err := stats.Mean(stats.Float64Data(xs))
	if err != nil {
		return nil, fmt.Errorf("fit trend: %w", err)
	}

	var sxx, rss float64
	for i := range xs {
		dx := xs[i] - xMean
		sxx += dx * dx
		residual := ys[i] - (intercept + slope*xs[i])
		rss += residual * residual
	}
	s2 := rss / (n - 2)
	residStd := math.Sqrt(s2)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	tq := tDist.Quantile(0.975)

	// Interpolate from the first row to the later of now/end, mirroring
	// the rendered x-range
	endX := points[len(points)-1].Timestamp.Sub(t0).Seconds()
	if !s.now().Before(raffle.EndDate) {
		endX = points[len(points)-2].Timestamp.Sub(t0).Seconds()
	}
	steps := len(points) - 1
	if steps < 2 {
		steps = 2
	}

	series := &models.GraphSeries{
		ChatID:    chatID,
		Points:    points,
		PoolTotal: points[len(points)-1].Pool,
		Entrants:  points[len(points)-1].Rank,
		FitTimes:  make([]time.Time, steps),
		Fit:       make([]float64, steps),
		ConfLower: make([]float64, steps),
		ConfUpper: make([]float64, steps),
		PredLower: make([]float64, steps),
		PredUpper: make([]float64, steps),
	}

	for i := 0; i < steps; i++ {
		x := endX * float64(i) / float64(steps-1)
		fit := intercept + slope*x

		spread := (x - xMean) * (x - xMean) / sxx
		confHalf := 1.96 * math.Sqrt(s2*(1/n+spread))
		predHalf := tq * residStd * math.Sqrt(1+1/n+spread)

		series.FitTimes[i] = t0.Add(time.Duration(x * float64(time.Second)))
		series.Fit[i] = fit
		series.ConfLower[i] = fit - confHalf
		series.ConfUpper[i] = fit + confHalf
		series.PredLower[i] = fit - predHalf
		series.PredUpper[i] = fit + predHalf
	}

	slog.Info("Computed pool graph", "chatId", chatID, "rows", len(points), "poolTotal", series.PoolTotal)
	return series, nil
}

// ComputeExpectedValue produces the expected net value to the next entrant
// at each materialized row: -fee*(1-p) + (pool-fee)*p with p = 1/rank.
// Rank 0 (the very first distinct entrant) has no defined odds and is
// reported as 0 rather than an error.
func (s *AnalyticsServiceImpl) ComputeExpectedValue(ctx context.Context, chatID int64) (*models.ExpectedSeries, error) {
	raffle, err := s.raffleRepo.FindActiveByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	points, err := s.materialize(raffle)
	if err != nil {
		return nil, err
	}

	fee := float64(raffle.EntryFee)
	series := &models.ExpectedSeries{
		ChatID:   chatID,
		EntryFee: raffle.EntryFee,
		Points:   make([]models.ExpectedPoint, len(points)),
	}
	for i, p := range points {
		var expected int64
		if p.Rank > 0 {
			odds := 1.0 / float64(p.Rank)
			expected = int64(math.Round(-fee*(1-odds) + (float64(p.Pool)-fee)*odds))
		}
		series.Points[i] = models.ExpectedPoint{Timestamp: p.Timestamp, Expected: expected}
	}
	series.Last = series.Points[len(series.Points)-1].Expected

	slog.Info("Computed expected values", "chatId", chatID, "rows", len(points), "last", series.Last)
	return series, nil
}
