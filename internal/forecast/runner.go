package forecast

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/domain"
	"github.com/dealerops/parts-forecast/internal/repository"
)

// Runner is the forecasting entry point for one dealer at a time. The
// bundle is resolved once and shared read-only across part workers;
// parts have no data dependency on each other, so they fan out over a
// bounded pool.
type Runner struct {
	bundles *assets.Cache
	history repository.HistoryProvider
	horizon int
	workers int
}

func NewRunner(bundles *assets.Cache, history repository.HistoryProvider, horizonDays, workers int) *Runner {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		bundles: bundles,
		history: history,
		horizon: horizonDays,
		workers: workers,
	}
}

// Horizon reports the configured simulation length in days.
func (r *Runner) Horizon() int { return r.horizon }

// ForecastDealer simulates every part in the universe and reduces each
// series to a ForecastRecord. A missing or corrupt bundle fails the
// whole dealer; a single part's failure is recorded and excluded from
// the batch without touching the other parts. Records whose aggregates
// are all zero carry no signal and are dropped.
func (r *Runner) ForecastDealer(ctx context.Context, dealer string, parts []string, asOf time.Time) (*domain.ForecastBatch, error) {
	bundle, err := r.bundles.Get(ctx, dealer)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle for dealer %s: %w", dealer, err)
	}

	if len(parts) == 0 {
		parts, err = r.history.ActiveParts(ctx, dealer, asOf)
		if err != nil {
			return nil, fmt.Errorf("resolve part universe for dealer %s: %w", dealer, err)
		}
	}

	asOf = civil(asOf)
	log.Info().Str("dealer", dealer).Int("parts", len(parts)).
		Time("as_of", asOf).Int("horizon_days", r.horizon).
		Msg("starting dealer forecast")

	batch := &domain.ForecastBatch{Dealer: dealer, AsOf: asOf}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, part := range parts {
		g.Go(func() error {
			record, err := r.forecastPart(gctx, bundle, dealer, part, asOf)
			if err != nil {
				if gctx.Err() != nil {
					// Cancellation is not a per-part failure.
					return gctx.Err()
				}
				log.Warn().Str("dealer", dealer).Str("part", part).Err(err).
					Msg("part simulation failed, excluding from batch")
				mu.Lock()
				batch.Failures = append(batch.Failures, domain.PartFailure{
					PartNumber: part,
					Reason:     err.Error(),
				})
				mu.Unlock()
				return nil
			}
			if record.IsZero() {
				return nil
			}
			mu.Lock()
			batch.Records = append(batch.Records, record)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic output order regardless of worker scheduling.
	sort.Slice(batch.Records, func(i, j int) bool {
		return batch.Records[i].PartNumber < batch.Records[j].PartNumber
	})
	sort.Slice(batch.Failures, func(i, j int) bool {
		return batch.Failures[i].PartNumber < batch.Failures[j].PartNumber
	})

	log.Info().Str("dealer", dealer).
		Int("records", len(batch.Records)).Int("failures", len(batch.Failures)).
		Msg("dealer forecast complete")

	return batch, nil
}

func (r *Runner) forecastPart(ctx context.Context, bundle *assets.Bundle, dealer, part string, asOf time.Time) (domain.ForecastRecord, error) {
	key := bundle.Encoder.Encode(part)

	seed, err := r.history.PartHistory(ctx, dealer, part, asOf.AddDate(0, 0, -1))
	if err != nil {
		return domain.ForecastRecord{}, fmt.Errorf("load history: %w", err)
	}

	engine := NewEngine(bundle)
	series, err := engine.Simulate(ctx, key, asOf, r.horizon, seed)
	if err != nil {
		return domain.ForecastRecord{}, err
	}

	agg := Reduce(series, asOf)
	return domain.ForecastRecord{
		Dealer:            dealer,
		PartNumber:        key.Number,
		PredictedToday:    agg.Today,
		PredictedTomorrow: agg.Tomorrow,
		PredictedWeekly:   agg.Week,
		PredictedMonthly:  agg.Month,
		PredictionDate:    asOf,
	}, nil
}
