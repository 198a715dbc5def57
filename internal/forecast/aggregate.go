package forecast

import (
	"time"

	"github.com/dealerops/parts-forecast/internal/domain"
)

// Aggregates are the rolled-up figures persisted per (dealer, part).
type Aggregates struct {
	Today    float64
	Tomorrow float64
	Week     float64
	Month    float64
}

// Reduce rolls a daily prediction series up into the four reported
// figures. Weekly figures use the business work-week, Monday through
// Friday of the week containing today; weekend days never contribute.
// The monthly figure is the sum of work-week sub-sums from the Monday
// of today's week through the last calendar day of the month, with the
// trailing partial week clipped at month end. Days absent from the
// series contribute nothing, so a horizon shorter than the remaining
// month clips safely.
//
// Reduce is a pure function of its inputs; re-running it on the same
// series yields identical aggregates.
func Reduce(series []domain.DailyPrediction, today time.Time) Aggregates {
	today = civil(today)
	byDate := make(map[time.Time]float64, len(series))
	for _, p := range series {
		byDate[civil(p.Date)] = p.Quantity
	}

	agg := Aggregates{
		Today:    byDate[today],
		Tomorrow: byDate[today.AddDate(0, 0, 1)],
	}

	monday := mondayOf(today)
	agg.Week = round2(workWeekSum(byDate, monday, monday.AddDate(0, 0, 4)))

	lastDay := lastDayOfMonth(today)
	var monthly float64
	for wk := monday; !wk.After(lastDay); wk = wk.AddDate(0, 0, 7) {
		friday := wk.AddDate(0, 0, 4)
		if friday.After(lastDay) {
			friday = lastDay
		}
		monthly += workWeekSum(byDate, wk, friday)
	}
	agg.Month = round2(monthly)

	return agg
}

func workWeekSum(byDate map[time.Time]float64, from, to time.Time) float64 {
	var sum float64
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		sum += byDate[d]
	}
	return sum
}
