package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/tmoore-prog/stock-market-pipeline/internal/api"
	"github.com/tmoore-prog/stock-market-pipeline/internal/config"
	"github.com/tmoore-prog/stock-market-pipeline/internal/database"
	"github.com/tmoore-prog/stock-market-pipeline/internal/progress"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetStatementTimeout(cfg.Database.StatementTimeout)

	var progressReader api.ProgressReader
	if cfg.Redis.Enabled() {
		tracker := progress.NewTracker(cfg.Redis.Addr)
		defer tracker.Close()
		progressReader = tracker
	}

	handler := api.NewHandler(db, progressReader)
	router := api.SetupRoutes(handler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.WithField("addr", addr).Info("starting ingestion monitoring API")
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
