package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dealerops/parts-forecast/internal/domain"
)

// HistoryRepository serves purchase history out of the parts purchase
// tables. Dealer and part columns are stored with trailing padding, so
// every comparison TRIMs.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// PartHistory returns one part's purchases up to asOf, summed per order
// entry date so the core sees at most one point per calendar day.
func (r *HistoryRepository) PartHistory(ctx context.Context, dealer, part string, asOf time.Time) ([]domain.HistoryPoint, error) {
	query := `
		SELECT
			ordr_entry_date,
			SUM(GREATEST(purchase_qty, 0)) AS purchase_qty
		FROM parts_purchase_data
		WHERE TRIM(dealer_code) = $1
		  AND UPPER(TRIM(part_no)) = UPPER($2)
		  AND ordr_entry_date IS NOT NULL
		  AND ordr_entry_date <= $3
		  AND purchase_qty IS NOT NULL
		GROUP BY ordr_entry_date
		ORDER BY ordr_entry_date ASC
	`

	var points []domain.HistoryPoint
	if err := r.db.SelectContext(ctx, &points, query, dealer, part, asOf); err != nil {
		return nil, fmt.Errorf("failed to fetch purchase history for %s/%s: %w", dealer, part, err)
	}
	return points, nil
}

// ActiveParts returns the distinct part numbers with purchase or sales
// activity in the nine months before asOf. This is the part universe
// one dealer run forecasts.
func (r *HistoryRepository) ActiveParts(ctx context.Context, dealer string, asOf time.Time) ([]string, error) {
	query := `
		WITH activity AS (
			SELECT
				TRIM(pp.part_no) AS part_no,
				GREATEST(
					COALESCE(lp.last_purchase_date, DATE '1900-01-01'),
					COALESCE(ls.last_sales_date, DATE '1900-01-01')
				) AS last_activity_date
			FROM parts_purchase_data pp
			LEFT JOIN (
				SELECT dealer_code, part_no, MAX(ordr_entry_date) AS last_purchase_date
				FROM parts_purchase_data
				WHERE ordr_entry_date <= $2
				GROUP BY dealer_code, part_no
			) lp ON pp.dealer_code = lp.dealer_code AND pp.part_no = lp.part_no
			LEFT JOIN (
				SELECT dealer_code, REPLACE(part_no, '-', '') AS part_no, MAX(invoice_date) AS last_sales_date
				FROM parts_sales_data
				WHERE invoice_date <= $2
				GROUP BY dealer_code, part_no
			) ls ON pp.dealer_code = ls.dealer_code AND TRIM(pp.part_no) = ls.part_no
			WHERE TRIM(pp.dealer_code) = $1
			  AND pp.ordr_entry_date <= $2
		)
		SELECT DISTINCT part_no
		FROM activity
		WHERE last_activity_date >= $2::date - INTERVAL '9 months'
		ORDER BY part_no
	`

	var parts []string
	if err := r.db.SelectContext(ctx, &parts, query, dealer, asOf); err != nil {
		return nil, fmt.Errorf("failed to fetch active parts for dealer %s: %w", dealer, err)
	}
	return parts, nil
}
