package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/domain"
)

// Engine drives the recursive multi-day simulation for single parts.
// Each day's prediction is appended to the history before the next
// day's features are built, so the model feeds on its own prior output.
type Engine struct {
	bundle *assets.Bundle
}

func NewEngine(bundle *assets.Bundle) *Engine {
	return &Engine{bundle: bundle}
}

// Simulate predicts horizonDays of purchases for one part starting at
// startDate. seed is the part's real purchase history (ascending by
// date, points dated before startDate); when empty, the history is
// primed with a single synthetic point at startDate-1 carrying the
// part's 3-month default, so cold-start parts are numerically
// indistinguishable from a part whose last purchase was yesterday at
// that default.
//
// The simulation is strictly sequential: day i+1's features depend on
// day i's output. Any model failure aborts the whole part; partial
// series are never returned.
func (e *Engine) Simulate(ctx context.Context, part assets.PartKey, startDate time.Time, horizonDays int, seed []domain.HistoryPoint) ([]domain.DailyPrediction, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}
	startDate = civil(startDate)

	builder := NewFeatureBuilder(e.bundle, part)

	history := NewHistory(nil)
	for _, p := range seed {
		if !civil(p.Date).Before(startDate) {
			// Simulated days may only see the past.
			continue
		}
		history.Append(p)
	}
	if history.Len() == 0 {
		history.Append(domain.HistoryPoint{
			Date:     startDate.AddDate(0, 0, -1),
			Quantity: builder.Defaults().Avg3,
		})
	}

	series := make([]domain.DailyPrediction, 0, horizonDays)
	for i := 0; i < horizonDays; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		currentDate := startDate.AddDate(0, 0, i)
		features := builder.Build(currentDate, history)

		raw, err := e.bundle.Model.Predict(features)
		if err != nil {
			return nil, fmt.Errorf("predict %s day %d (%s): %w",
				part.Number, i, currentDate.Format("2006-01-02"), err)
		}
		qty := round2(raw)

		history.Append(domain.HistoryPoint{Date: currentDate, Quantity: qty})
		series = append(series, domain.DailyPrediction{Date: currentDate, Quantity: qty})
	}

	return series, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
