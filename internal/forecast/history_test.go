package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dealerops/parts-forecast/internal/domain"
)

func dailyPoints(start time.Time, quantities ...float64) []domain.HistoryPoint {
	points := make([]domain.HistoryPoint, len(quantities))
	for i, q := range quantities {
		points[i] = domain.HistoryPoint{Date: start.AddDate(0, 0, i), Quantity: q}
	}
	return points
}

func TestHistoryLag(t *testing.T) {
	start := date(2026, time.August, 1)
	h := NewHistory(dailyPoints(start, 1, 2, 3))

	v, ok := h.Lag(1)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = h.Lag(3)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = h.Lag(4)
	assert.False(t, ok, "lag beyond recorded history")

	_, ok = h.Lag(0)
	assert.False(t, ok)
}

func TestHistoryRingOverflow(t *testing.T) {
	start := date(2026, time.January, 1)
	h := NewHistory(nil)
	for i := 0; i < historyCapacity+10; i++ {
		h.Append(domain.HistoryPoint{Date: start.AddDate(0, 0, i), Quantity: float64(i)})
	}

	assert.Equal(t, historyCapacity, h.Len())

	newest, ok := h.Lag(1)
	assert.True(t, ok)
	assert.Equal(t, float64(historyCapacity+9), newest)

	oldest, ok := h.Lag(historyCapacity)
	assert.True(t, ok)
	assert.Equal(t, 10.0, oldest, "the first ten points were overwritten")
}

func TestRollingMeanWindowBoundaries(t *testing.T) {
	end := date(2026, time.August, 10)
	h := NewHistory([]domain.HistoryPoint{
		{Date: end.AddDate(0, 0, -90), Quantity: 100}, // outside a 90-day window ending at end
		{Date: end.AddDate(0, 0, -89), Quantity: 2},   // first day inside
		{Date: end, Quantity: 4},                      // last day inside
	})

	mean, ok := h.RollingMean(end, 90)
	assert.True(t, ok)
	assert.Equal(t, 3.0, mean)
}

func TestRollingMeanEmptyWindow(t *testing.T) {
	h := NewHistory(dailyPoints(date(2026, time.January, 1), 5, 5))

	_, ok := h.RollingMean(date(2026, time.August, 1), 90)
	assert.False(t, ok, "all points predate the window")
}

func TestRollingStd(t *testing.T) {
	end := date(2026, time.August, 10)
	h := NewHistory(dailyPoints(end.AddDate(0, 0, -2), 2, 4, 6))

	std, ok := h.RollingStd(end, 90)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, std, 1e-9, "sample standard deviation of {2,4,6}")
}

func TestRollingStdSinglePoint(t *testing.T) {
	end := date(2026, time.August, 10)
	h := NewHistory([]domain.HistoryPoint{{Date: end, Quantity: 7}})

	std, ok := h.RollingStd(end, 90)
	assert.True(t, ok)
	assert.Equal(t, 0.0, std, "one point yields zero, never NaN")
}

func TestRollingSum(t *testing.T) {
	h := NewHistory(dailyPoints(date(2026, time.August, 1), 1, 2, 3, 4))

	assert.Equal(t, 7.0, h.RollingSum(2))
	assert.Equal(t, 10.0, h.RollingSum(30), "capped at recorded history")
	assert.Equal(t, 0.0, NewHistory(nil).RollingSum(30))
}
