package forecast

import (
	"math"
	"time"

	"github.com/dealerops/parts-forecast/internal/domain"
)

// historyCapacity bounds the ring buffer to what the feature set can
// ever reach back for: lag_90 by position, and the 180-day rolling
// window by date (points are deduplicated per date, so 180 entries
// cover 180 days).
const historyCapacity = 180

// History is a fixed-capacity ring of date-ordered purchase points.
// Appends must be in ascending date order; once full, the oldest point
// is overwritten. Lag lookups are O(1) by index instead of slicing from
// the end of an ever-growing table.
type History struct {
	points [historyCapacity]domain.HistoryPoint
	head   int // next write position
	size   int
}

func NewHistory(points []domain.HistoryPoint) *History {
	h := &History{}
	for _, p := range points {
		h.Append(p)
	}
	return h
}

func (h *History) Append(p domain.HistoryPoint) {
	h.points[h.head] = p
	h.head = (h.head + 1) % historyCapacity
	if h.size < historyCapacity {
		h.size++
	}
}

func (h *History) Len() int { return h.size }

// at returns the point `back` positions before the newest (back=0 is
// the newest point).
func (h *History) at(back int) domain.HistoryPoint {
	idx := (h.head - 1 - back + 2*historyCapacity) % historyCapacity
	return h.points[idx]
}

// Lag returns the quantity k positions back in the ordered history
// (k=1 is the most recent point). ok is false when fewer than k points
// exist.
func (h *History) Lag(k int) (float64, bool) {
	if k < 1 || k > h.size {
		return 0, false
	}
	return h.at(k - 1).Quantity, true
}

// windowStats aggregates quantities for points dated within the
// trailing window [end-days+1, end]. n is the number of points hit.
func (h *History) windowStats(end time.Time, days int) (sum, sumSq float64, n int) {
	end = civil(end)
	start := end.AddDate(0, 0, -(days - 1))
	for i := 0; i < h.size; i++ {
		p := h.at(i)
		d := civil(p.Date)
		if d.After(end) {
			continue
		}
		if d.Before(start) {
			// Points are date-ordered, so everything further back is
			// outside the window too.
			break
		}
		sum += p.Quantity
		sumSq += p.Quantity * p.Quantity
		n++
	}
	return sum, sumSq, n
}

// RollingMean computes the mean over the trailing window, or ok=false
// when no points fall inside it.
func (h *History) RollingMean(end time.Time, days int) (float64, bool) {
	sum, _, n := h.windowStats(end, days)
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// RollingStd computes the sample standard deviation over the trailing
// window. A window of exactly one point yields 0, not NaN.
func (h *History) RollingStd(end time.Time, days int) (float64, bool) {
	sum, sumSq, n := h.windowStats(end, days)
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return 0, true
	}
	variance := (sumSq - sum*sum/float64(n)) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance), true
}

// RollingSum sums the most recent n quantities (all of them when fewer
// exist).
func (h *History) RollingSum(n int) float64 {
	if n > h.size {
		n = h.size
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += h.at(i).Quantity
	}
	return sum
}
