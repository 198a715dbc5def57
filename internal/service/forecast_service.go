package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/cache"
	"github.com/dealerops/parts-forecast/internal/domain"
	"github.com/dealerops/parts-forecast/internal/forecast"
	"github.com/dealerops/parts-forecast/internal/repository"
)

// ForecastService ties the forecasting core to its collaborators: the
// bundle cache, the history provider, the persistence sink and the
// read cache.
type ForecastService struct {
	runner  *forecast.Runner
	bundles *assets.Cache
	history repository.HistoryProvider
	sink    repository.ForecastSink
	cache   cache.ForecastCache
}

func NewForecastService(
	runner *forecast.Runner,
	bundles *assets.Cache,
	history repository.HistoryProvider,
	sink repository.ForecastSink,
	forecastCache cache.ForecastCache,
) *ForecastService {
	return &ForecastService{
		runner:  runner,
		bundles: bundles,
		history: history,
		sink:    sink,
		cache:   forecastCache,
	}
}

// RunDealer forecasts every active part for a dealer and upserts the
// resulting batch. The in-memory batch is returned even when
// persistence fails, so the caller can retry the sink without
// recomputing.
func (s *ForecastService) RunDealer(ctx context.Context, dealer string, asOf time.Time) (*domain.ForecastBatch, error) {
	dealer = strings.TrimSpace(dealer)
	if dealer == "" {
		return nil, fmt.Errorf("dealer code is required")
	}

	batch, err := s.runner.ForecastDealer(ctx, dealer, nil, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.sink.UpsertBatch(ctx, batch.Records); err != nil {
		return batch, fmt.Errorf("persist forecast batch for dealer %s: %w", dealer, err)
	}

	if err := s.cache.InvalidateDealer(ctx, dealer); err != nil {
		log.Warn().Str("dealer", dealer).Err(err).Msg("failed to invalidate forecast cache")
	}

	return batch, nil
}

// PredictPart builds features for a single (dealer, part) at the given
// date and scores them once. This serves the interactive lookup
// endpoint; the recursive simulation is not involved.
func (s *ForecastService) PredictPart(ctx context.Context, dealer, part string, targetDate time.Time) (float64, bool, error) {
	dealer = strings.TrimSpace(dealer)
	part = strings.TrimSpace(part)
	if dealer == "" {
		return 0, false, fmt.Errorf("dealer code is required")
	}
	if part == "" {
		return 0, false, fmt.Errorf("part number is required")
	}

	bundle, err := s.bundles.Get(ctx, dealer)
	if err != nil {
		return 0, false, err
	}

	key := bundle.Encoder.Encode(part)
	if !key.Known() {
		log.Warn().Str("dealer", dealer).Str("part", part).
			Msg("part unknown to encoder, predicting on global defaults")
	}

	points, err := s.history.PartHistory(ctx, dealer, key.Number, targetDate.AddDate(0, 0, -1))
	if err != nil {
		return 0, false, fmt.Errorf("load history for %s/%s: %w", dealer, part, err)
	}

	builder := forecast.NewFeatureBuilder(bundle, key)
	features := builder.Build(targetDate, forecast.NewHistory(points))

	qty, err := bundle.Model.Predict(features)
	if err != nil {
		return 0, false, fmt.Errorf("predict %s/%s: %w", dealer, part, err)
	}
	if qty < 0 {
		qty = 0
	}
	return qty, key.Known(), nil
}

// ListForecasts returns stored records for a dealer, served from the
// read cache when warm.
func (s *ForecastService) ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.ForecastRecord, error) {
	filter.Dealer = strings.TrimSpace(filter.Dealer)
	if filter.Dealer == "" {
		return nil, fmt.Errorf("dealer code is required")
	}

	if records, ok, err := s.cache.Get(ctx, filter); err != nil {
		log.Warn().Str("dealer", filter.Dealer).Err(err).Msg("forecast cache read failed")
	} else if ok {
		return records, nil
	}

	records, err := s.sink.ListByDealer(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, filter, records); err != nil {
		log.Warn().Str("dealer", filter.Dealer).Err(err).Msg("forecast cache write failed")
	}

	return records, nil
}
