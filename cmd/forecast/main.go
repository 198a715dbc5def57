package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/config"
	"github.com/dealerops/parts-forecast/internal/domain"
	"github.com/dealerops/parts-forecast/internal/export"
	"github.com/dealerops/parts-forecast/internal/forecast"
	"github.com/dealerops/parts-forecast/internal/repository/postgres"
	"github.com/dealerops/parts-forecast/internal/storage"
	"github.com/dealerops/parts-forecast/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "forecast",
		Usage: "Batch purchase forecasting for dealer parts",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the recursive forecast for one or more dealers and persist the results",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "dealers",
						Usage:    "Dealer codes to forecast",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "as-of",
						Usage: "Forecast start date (YYYY-MM-DD), defaults to today",
					},
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Number of days to simulate",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent parts per dealer",
					},
					&cli.BoolFlag{
						Name:  "export",
						Usage: "Write the forecast batches to an xlsx workbook",
					},
				},
				Action: runForecast,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runForecast(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	asOf := time.Now().UTC()
	if v := c.String("as-of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q: %w", v, err)
		}
		asOf = parsed
	}

	horizon := cfg.Forecast.HorizonDays
	if c.Int("horizon") > 0 {
		horizon = c.Int("horizon")
	}
	workers := cfg.Forecast.Workers
	if c.Int("workers") > 0 {
		workers = c.Int("workers")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	loader, err := newBundleLoader(cfg.Assets)
	if err != nil {
		return fmt.Errorf("failed to initialize model bundle loader: %w", err)
	}
	bundles := assets.NewCache(loader)

	historyRepo := postgres.NewHistoryRepository(db.DB)
	forecastRepo := postgres.NewForecastRepository(db)
	runner := forecast.NewRunner(bundles, historyRepo, horizon, workers)

	var batches []domain.ForecastBatch
	failed := 0
	for _, dealer := range c.StringSlice("dealers") {
		start := time.Now()
		batch, err := runner.ForecastDealer(c.Context, dealer, nil, asOf)
		if err != nil {
			logger.Log.Error().Err(err).Str("dealer", dealer).Msg("Forecast failed")
			failed++
			continue
		}

		if err := forecastRepo.UpsertBatch(c.Context, batch.Records); err != nil {
			logger.Log.Error().Err(err).Str("dealer", dealer).Msg("Failed to persist forecast batch")
			failed++
			continue
		}

		logger.Log.Info().
			Str("dealer", dealer).
			Int("records", len(batch.Records)).
			Int("failures", len(batch.Failures)).
			Dur("elapsed", time.Since(start)).
			Msg("Forecast batch persisted")
		batches = append(batches, *batch)
	}

	if c.Bool("export") && len(batches) > 0 {
		path, err := export.WriteWorkbook(cfg.Forecast.ExportDir, batches)
		if err != nil {
			return fmt.Errorf("failed to export workbook: %w", err)
		}
		logger.Log.Info().Str("path", path).Msg("Forecast workbook written")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d dealers failed", failed, len(c.StringSlice("dealers")))
	}
	return nil
}

func newBundleLoader(cfg config.AssetsConfig) (assets.Loader, error) {
	if cfg.Bucket == "" {
		return assets.NewFSLoader(cfg.Dir), nil
	}

	store, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return assets.NewObjectLoader(store, cfg.Dir), nil
}
