package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dealerops/parts-forecast/internal/api/handlers"
	"github.com/dealerops/parts-forecast/internal/api/middleware"
	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/cache"
	"github.com/dealerops/parts-forecast/internal/config"
	"github.com/dealerops/parts-forecast/internal/forecast"
	"github.com/dealerops/parts-forecast/internal/repository/postgres"
	"github.com/dealerops/parts-forecast/internal/service"
	"github.com/dealerops/parts-forecast/internal/storage"
	"github.com/dealerops/parts-forecast/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	loader, err := newBundleLoader(cfg.Assets)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize model bundle loader")
	}
	bundles := assets.NewCache(loader)

	historyRepo := postgres.NewHistoryRepository(db.DB)
	forecastRepo := postgres.NewForecastRepository(db)

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	runner := forecast.NewRunner(bundles, historyRepo, cfg.Forecast.HorizonDays, cfg.Forecast.Workers)
	forecastService := service.NewForecastService(runner, bundles, historyRepo, forecastRepo, forecastCache)

	router := setupRouter(forecastService)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// newBundleLoader reads model artifacts from the local assets
// directory, fronted by object storage when a bucket is configured.
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

func setupRouter(forecastService *service.ForecastService) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		forecastHandler := handlers.NewForecastHandler(forecastService)
		v1.POST("/predict", forecastHandler.Predict)
		v1.POST("/forecast/run", forecastHandler.Run)
		v1.GET("/forecast", forecastHandler.List)
	}

	return router
}
