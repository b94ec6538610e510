package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tmoore-prog/stock-market-pipeline/internal/config"
	"github.com/tmoore-prog/stock-market-pipeline/internal/database"
	"github.com/tmoore-prog/stock-market-pipeline/internal/ingest"
	"github.com/tmoore-prog/stock-market-pipeline/internal/kafka"
	"github.com/tmoore-prog/stock-market-pipeline/internal/polygon"
	"github.com/tmoore-prog/stock-market-pipeline/internal/progress"
)

func main() {
	logger := newLogger()
	cfg := config.Load()

	if cfg.Polygon.APIKey == "" {
		logger.Fatal("POLYGON_API_KEY is required")
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetStatementTimeout(cfg.Database.StatementTimeout)

	fetcher := polygon.NewClient(cfg.Polygon.BaseURL, cfg.Polygon.APIKey, logger)

	var publisher ingest.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		logger.WithField("topic", cfg.Kafka.Topic).Info("ingestion event publishing enabled")
	}

	var tracker ingest.ProgressTracker
	if cfg.Redis.Enabled() {
		t := progress.NewTracker(cfg.Redis.Addr)
		defer t.Close()
		tracker = t
	}

	loader := ingest.NewLoader(db, db, publisher, logger)
	backfill := ingest.NewBackfill(cfg.Backfill, fetcher, loader, db, tracker, logger)

	if err := backfill.Run(context.Background()); err != nil {
		logger.Fatalf("backfill failed: %v", err)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
