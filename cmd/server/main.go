package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"radar/server/config"
	"radar/server/internal/api"
	"radar/server/internal/database"
	"radar/server/internal/geocoding"
	"radar/server/internal/geometry"
	"radar/server/internal/metrics"
	"radar/server/internal/query"
	"radar/server/internal/trades"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("Unknown log level %q, using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Trades.ServiceKey == "" {
		logger.Warn("DATAPORTAL is not set, every transaction fetch will fail")
	}
	if cfg.Geocoding.VWorldKey == "" && cfg.Geocoding.KakaoKey == "" {
		logger.Warn("No geocoding key is set, the map view will have no markers")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	// Datasets live in memory only and are gone after a restart
	db, err := database.NewDatabase(cfg.Datasets.Retention, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	geocoder := geocoding.NewGeocoder(cfg, logger, recorder)
	markers := geometry.NewMarkerBuilder(geocoder, cfg.Datasets.MapMarkerLimit, cfg.Geocoding.Workers, logger)

	client := trades.NewClient(cfg, logger, recorder)
	aggregator := trades.NewAggregator(client, cfg, logger)
	runner := query.NewRunner(aggregator, db, recorder, logger)

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(db, runner, markers, logger)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins, registry)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
