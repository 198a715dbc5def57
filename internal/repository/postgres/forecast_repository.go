package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dealerops/parts-forecast/internal/domain"
)

// ForecastRepository persists forecast batches with idempotent upserts
// keyed by (dealer, part, prediction date). Re-delivering a batch
// replaces prior values, so the caller can retry without recomputation.
type ForecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

func (r *ForecastRepository) UpsertBatch(ctx context.Context, records []domain.ForecastRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO part_purchase_forecast (
			dlr_cd, part_no, predicted_today, predicted_tomorrow,
			predicted_weekly, predicted_monthly, prediction_date
		) VALUES (
			:dlr_cd, :part_no, :predicted_today, :predicted_tomorrow,
			:predicted_weekly, :predicted_monthly, :prediction_date
		)
		ON CONFLICT (dlr_cd, part_no, prediction_date)
		DO UPDATE SET
			predicted_today = EXCLUDED.predicted_today,
			predicted_tomorrow = EXCLUDED.predicted_tomorrow,
			predicted_weekly = EXCLUDED.predicted_weekly,
			predicted_monthly = EXCLUDED.predicted_monthly
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, records); err != nil {
			return fmt.Errorf("failed to upsert forecast batch: %w", err)
		}
		return nil
	})
}

func (r *ForecastRepository) ListByDealer(ctx context.Context, filter domain.ForecastFilter) ([]domain.ForecastRecord, error) {
	query := `
		SELECT dlr_cd, part_no, predicted_today, predicted_tomorrow,
		       predicted_weekly, predicted_monthly, prediction_date
		FROM part_purchase_forecast
		WHERE TRIM(dlr_cd) = $1
	`
	args := []any{filter.Dealer}

	if !filter.Date.IsZero() {
		query += ` AND prediction_date = $2`
		args = append(args, filter.Date)
	}
	query += ` ORDER BY predicted_monthly DESC, part_no ASC`

	var records []domain.ForecastRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list forecasts for dealer %s: %w", filter.Dealer, err)
	}
	return records, nil
}
