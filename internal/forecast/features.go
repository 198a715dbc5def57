package forecast

import (
	"math"
	"time"

	"github.com/dealerops/parts-forecast/internal/assets"
)

// FeatureBuilder assembles the ordered feature vector for one part.
// The field set and order come from the model's declared schema, never
// from a hard-coded list: dealers are served by models trained at
// different times with different feature variants.
//
// Schema names the builder understands beyond the base set are the
// extended-variant fields (day_of_month, cyclic encodings, rolling
// sums, extra lags, days_since_last_purchase). Names outside the
// registry resolve to 0, mirroring how the training pipeline pads
// absent columns.
type FeatureBuilder struct {
	schema     []string
	cal        *holidayCalendar
	part       assets.PartKey
	defaults   assets.PartDefaults
	active     float64
	dealerCode float64
}

func NewFeatureBuilder(bundle *assets.Bundle, part assets.PartKey) *FeatureBuilder {
	return &FeatureBuilder{
		schema:     bundle.Model.Schema(),
		cal:        newHolidayCalendar(),
		part:       part,
		defaults:   bundle.Stats.Defaults(part.Number),
		active:     float64(bundle.Active.IsActive(part.Number)),
		dealerCode: float64(bundle.DealerCode),
	}
}

// Defaults exposes the resolved fallback statistics for this part.
func (b *FeatureBuilder) Defaults() assets.PartDefaults { return b.defaults }

// Build computes the feature vector for targetDate from the history as
// it stands. Only points dated before targetDate may be present in
// hist; the builder itself never looks past targetDate.
func (b *FeatureBuilder) Build(targetDate time.Time, hist *History) []float64 {
	targetDate = civil(targetDate)
	vec := make([]float64, len(b.schema))
	for i, name := range b.schema {
		vec[i] = b.feature(name, targetDate, hist)
	}
	return vec
}

func (b *FeatureBuilder) feature(name string, d time.Time, hist *History) float64 {
	switch name {
	case "dealer_code":
		return b.dealerCode
	case "part_no":
		return float64(b.part.Code)
	case "year":
		return float64(d.Year())
	case "month":
		return float64(int(d.Month()))
	case "day_of_month":
		return float64(d.Day())
	case "day_of_week":
		return float64(weekdayIndex(d))
	case "week_of_year":
		_, week := d.ISOWeek()
		return float64(week)
	case "is_holiday":
		if b.cal.IsHoliday(d) {
			return 1
		}
		return 0
	case "day_of_week_sin":
		return math.Sin(2 * math.Pi * float64(weekdayIndex(d)) / 7)
	case "day_of_week_cos":
		return math.Cos(2 * math.Pi * float64(weekdayIndex(d)) / 7)
	case "month_sin":
		return math.Sin(2 * math.Pi * float64(int(d.Month())) / 12)
	case "month_cos":
		return math.Cos(2 * math.Pi * float64(int(d.Month())) / 12)
	case "3_month_avg":
		if mean, ok := hist.RollingMean(d, 90); ok {
			return mean
		}
		return b.defaults.Avg3
	case "6_month_avg":
		if mean, ok := hist.RollingMean(d, 180); ok {
			return mean
		}
		return b.defaults.Avg6
	case "3_month_std":
		if std, ok := hist.RollingStd(d, 90); ok {
			return std
		}
		return b.defaults.Std3
	case "lag_1":
		if v, ok := hist.Lag(1); ok {
			return v
		}
		return b.defaults.Avg3
	case "lag_7":
		if v, ok := hist.Lag(7); ok {
			return v
		}
		return b.defaults.Avg6
	case "lag_14":
		if v, ok := hist.Lag(14); ok {
			return v
		}
		return b.defaults.Avg6
	case "lag_30":
		if v, ok := hist.Lag(30); ok {
			return v
		}
		return b.defaults.Avg6
	case "lag_90":
		if v, ok := hist.Lag(90); ok {
			return v
		}
		return b.defaults.Avg6
	case "30d_sum":
		return hist.RollingSum(30)
	case "90d_sum":
		return hist.RollingSum(90)
	case "days_since_last_purchase":
		return b.daysSinceLast(d, hist)
	case "is_active":
		return b.active
	default:
		return 0
	}
}

// defaultDaysSinceLast seeds the recency feature for parts with no
// history at all.
const defaultDaysSinceLast = 30

func (b *FeatureBuilder) daysSinceLast(d time.Time, hist *History) float64 {
	if hist.Len() == 0 {
		return defaultDaysSinceLast
	}
	lastDate := civil(hist.at(0).Date)
	return d.Sub(lastDate).Hours() / 24
}
