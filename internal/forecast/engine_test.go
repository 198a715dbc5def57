package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/domain"
)

func TestSimulateFeedsPredictionsForward(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1"})
	// Each day predicts yesterday plus one.
	model.fn = func(features []float64) float64 { return features[0] + 1 }

	engine := NewEngine(bundle)
	start := date(2026, time.August, 10)
	seed := []domain.HistoryPoint{{Date: start.AddDate(0, 0, -1), Quantity: 10}}

	series, err := engine.Simulate(context.Background(), bundle.Encoder.Encode("BP-1001"), start, 3, seed)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, 11.0, series[0].Quantity)
	assert.Equal(t, 12.0, series[1].Quantity, "day 2 sees day 1's output as lag_1")
	assert.Equal(t, 13.0, series[2].Quantity)

	assert.Equal(t, start, series[0].Date)
	assert.Equal(t, start.AddDate(0, 0, 2), series[2].Date)

	// The model saw exactly three vectors, one per simulated day.
	require.Len(t, model.seen, 3)
	assert.Equal(t, 10.0, model.seen[0][0])
	assert.Equal(t, 11.0, model.seen[1][0])
	assert.Equal(t, 12.0, model.seen[2][0])
}

func TestSimulateColdStartSeedsDefault(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1"})
	model.fn = func(features []float64) float64 { return features[0] }

	engine := NewEngine(bundle)
	start := date(2026, time.August, 10)

	series, err := engine.Simulate(context.Background(), bundle.Encoder.Encode("BP-1001"), start, 1, nil)
	require.NoError(t, err)

	// With no history, the synthetic point carries the part's 3-month
	// default (3 for BP-1001 in the test bundle).
	assert.Equal(t, 3.0, series[0].Quantity)
}

func TestSimulateColdStartMatchesRecentPurchaseAtDefault(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1", "day_of_week"})
	model.fn = func(features []float64) float64 { return features[0] * 2 }

	engine := NewEngine(bundle)
	start := date(2026, time.August, 10)
	part := bundle.Encoder.Encode("BP-1001")

	cold, err := engine.Simulate(context.Background(), part, start, 5, nil)
	require.NoError(t, err)

	seeded, err := engine.Simulate(context.Background(), part, start, 5,
		[]domain.HistoryPoint{{Date: start.AddDate(0, 0, -1), Quantity: 3}})
	require.NoError(t, err)

	assert.Equal(t, seeded, cold, "cold start is indistinguishable from a purchase of the default yesterday")
}

func TestSimulateIgnoresFutureSeedPoints(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1"})
	model.fn = func(features []float64) float64 { return features[0] }

	engine := NewEngine(bundle)
	start := date(2026, time.August, 10)
	seed := []domain.HistoryPoint{
		{Date: start.AddDate(0, 0, -1), Quantity: 6},
		{Date: start, Quantity: 99},                  // same day as simulation start
		{Date: start.AddDate(0, 0, 3), Quantity: 99}, // future
	}

	series, err := engine.Simulate(context.Background(), bundle.Encoder.Encode("BP-1001"), start, 1, seed)
	require.NoError(t, err)
	assert.Equal(t, 6.0, series[0].Quantity, "points dated at or after start are discarded")
}

func TestSimulateRoundsToCents(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1"})
	model.fn = func([]float64) float64 { return 2.71828 }

	engine := NewEngine(bundle)
	series, err := engine.Simulate(context.Background(), bundle.Encoder.Encode("BP-1001"),
		date(2026, time.August, 10), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.72, series[0].Quantity)
}

func TestSimulateDeterministic(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1", "3_month_avg", "day_of_week"})
	model.fn = func(features []float64) float64 { return features[0]*0.5 + features[1]*0.25 }

	engine := NewEngine(bundle)
	start := date(2026, time.August, 10)
	seed := dailyPoints(start.AddDate(0, 0, -10), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	part := bundle.Encoder.Encode("BP-1001")

	first, err := engine.Simulate(context.Background(), part, start, 30, seed)
	require.NoError(t, err)
	second, err := engine.Simulate(context.Background(), part, start, 30, seed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulateRejectsNonPositiveHorizon(t *testing.T) {
	bundle, _ := testBundle([]string{"lag_1"})
	engine := NewEngine(bundle)

	_, err := engine.Simulate(context.Background(), bundle.Encoder.Encode("BP-1001"),
		date(2026, time.August, 10), 0, nil)
	assert.Error(t, err)
}

func TestSimulateAbortsOnModelError(t *testing.T) {
	calls := 0
	bundle, _ := testBundle(nil)
	bundle.Model = &failingModel{failAt: 2, calls: &calls}

	engine := NewEngine(bundle)
	series, err := engine.Simulate(context.Background(), assets.PartKey{Number: "BP-1001", Code: 7},
		date(2026, time.August, 10), 5, nil)

	require.Error(t, err)
	assert.Nil(t, series, "no partial series on failure")
	assert.Equal(t, 3, calls, "simulation stopped at the failing day")
}

type failingModel struct {
	failAt int
	calls  *int
}

func (m *failingModel) Schema() []string { return []string{"lag_1"} }

func (m *failingModel) Predict([]float64) (float64, error) {
	i := *m.calls
	*m.calls = i + 1
	if i == m.failAt {
		return 0, errors.New("model blew up")
	}
	return 1, nil
}

func TestSimulateHonorsCancellation(t *testing.T) {
	bundle, model := testBundle([]string{"lag_1"})
	model.fn = func(features []float64) float64 { return features[0] }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(bundle)
	_, err := engine.Simulate(ctx, bundle.Encoder.Encode("BP-1001"),
		date(2026, time.August, 10), 30, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
