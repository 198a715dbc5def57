package domain

import "time"

// HistoryPoint is one observed purchase for a part, deduplicated by date.
// Sequences are always ordered ascending by date.
type HistoryPoint struct {
	Date     time.Time `json:"date" db:"ordr_entry_date"`
	Quantity float64   `json:"quantity" db:"purchase_qty"`
}

// ForecastRecord is the rolled-up forecast for one (dealer, part) pair,
// keyed by (dealer, part, prediction date) in the sink.
type ForecastRecord struct {
	Dealer            string    `json:"dealer_code" db:"dlr_cd"`
	PartNumber        string    `json:"part_number" db:"part_no"`
	PredictedToday    float64   `json:"predicted_today" db:"predicted_today"`
	PredictedTomorrow float64   `json:"predicted_tomorrow" db:"predicted_tomorrow"`
	PredictedWeekly   float64   `json:"predicted_weekly" db:"predicted_weekly"`
	PredictedMonthly  float64   `json:"predicted_monthly" db:"predicted_monthly"`
	PredictionDate    time.Time `json:"prediction_date" db:"prediction_date"`
}

// IsZero reports whether all four aggregates are exactly zero. Records
// with no signal are dropped before persistence.
func (r ForecastRecord) IsZero() bool {
	return r.PredictedToday == 0 &&
		r.PredictedTomorrow == 0 &&
		r.PredictedWeekly == 0 &&
		r.PredictedMonthly == 0
}

// DailyPrediction is one simulated day of a part's forecast series.
type DailyPrediction struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// PartFailure records a part whose simulation aborted. The part is
// excluded from the output batch, never zero-filled.
type PartFailure struct {
	PartNumber string `json:"part_number"`
	Reason     string `json:"reason"`
}

// ForecastBatch is the result of one dealer run.
type ForecastBatch struct {
	Dealer   string           `json:"dealer_code"`
	AsOf     time.Time        `json:"as_of"`
	Records  []ForecastRecord `json:"records"`
	Failures []PartFailure    `json:"failures,omitempty"`
}

// ForecastFilter selects stored forecast records.
type ForecastFilter struct {
	Dealer string
	Date   time.Time
}
