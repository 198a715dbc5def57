package repository

import (
	"context"
	"time"

	"github.com/dealerops/parts-forecast/internal/domain"
)

// HistoryProvider supplies ordered purchase history for the forecasting
// core. Implementations own all query and filtering logic; the core
// only requires output sorted ascending by date, deduplicated by date,
// with non-negative quantities.
type HistoryProvider interface {
	// PartHistory returns the purchase history for one part up to and
	// including asOf.
	PartHistory(ctx context.Context, dealer, part string, asOf time.Time) ([]domain.HistoryPoint, error)
	// ActiveParts returns the distinct part numbers considered active
	// for a dealer as of the given date.
	ActiveParts(ctx context.Context, dealer string, asOf time.Time) ([]string, error)
}

// ForecastSink persists forecast batches. Upserts are idempotent on
// (dealer, part, prediction date): re-delivery replaces prior values.
type ForecastSink interface {
	UpsertBatch(ctx context.Context, records []domain.ForecastRecord) error
	ListByDealer(ctx context.Context, filter domain.ForecastFilter) ([]domain.ForecastRecord, error)
}
