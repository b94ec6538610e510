package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// CheckpointStore records per-day ingestion outcomes. The Loader never
// writes checkpoint state through any other path.
type CheckpointStore interface {
	RecordStart(ctx context.Context, runID string, date time.Time, totalTickers int) error
	RecordCompleted(ctx context.Context, runID string, date time.Time, totalTickers int, rowsInserted int64) error
	RecordFailed(ctx context.Context, runID string, date time.Time, errorMessage string) error
}

// Sink persists a day's bars to the warehouse fact table.
type Sink interface {
	InsertDailyBars(ctx context.Context, bars []models.Bar, date time.Time) (int64, error)
}

// EventPublisher notifies downstream consumers of terminal day outcomes.
type EventPublisher interface {
	PublishDayCompleted(ctx context.Context, event models.IngestionEvent) error
	PublishDayFailed(ctx context.Context, event models.IngestionEvent) error
}

// Loader brackets each day's warehouse insert with start and terminal
// checkpoint writes.
type Loader struct {
	sink        Sink
	checkpoints CheckpointStore
	events      EventPublisher // nil when event publishing is disabled
	logger      *logrus.Logger
}

// NewLoader creates a Loader. events may be nil.
func NewLoader(sink Sink, checkpoints CheckpointStore, events EventPublisher, logger *logrus.Logger) *Loader {
	return &Loader{
		sink:        sink,
		checkpoints: checkpoints,
		events:      events,
		logger:      logger,
	}
}

// Load persists one day's dataset. An empty dataset is a no-op day: no
// checkpoint, no insert. An insert failure records a failed checkpoint
// and leaves the day eligible for a future run.
func (l *Loader) Load(ctx context.Context, bars []models.Bar, date time.Time, runID string) error {
	dateStr := date.Format("2006-01-02")
	if len(bars) == 0 {
		l.logger.WithField("date", dateStr).Info("no data to save")
		return nil
	}

	totalTickers := distinctTickers(bars)
	if err := l.checkpoints.RecordStart(ctx, runID, date, totalTickers); err != nil {
		return err
	}

	rowsInserted, err := l.sink.InsertDailyBars(ctx, bars, date)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"date":   dateStr,
			"run_id": runID,
		}).Errorf("failed to save data: %v", err)

		if cpErr := l.checkpoints.RecordFailed(ctx, runID, date, err.Error()); cpErr != nil {
			return cpErr
		}
		l.publish(ctx, models.IngestionEvent{
			EventType: models.EventDayFailed,
			RunID:     runID,
			Date:      dateStr,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return nil
	}

	if err := l.checkpoints.RecordCompleted(ctx, runID, date, totalTickers, rowsInserted); err != nil {
		return err
	}

	l.logger.WithFields(logrus.Fields{
		"date":    dateStr,
		"run_id":  runID,
		"rows":    rowsInserted,
		"tickers": totalTickers,
	}).Info("saved day")

	l.publish(ctx, models.IngestionEvent{
		EventType:    models.EventDayCompleted,
		RunID:        runID,
		Date:         dateStr,
		TotalTickers: totalTickers,
		RowsInserted: rowsInserted,
		Timestamp:    time.Now().UTC(),
	})
	return nil
}

// publish forwards a terminal event; publish failures are logged, never
// fatal to the run.
func (l *Loader) publish(ctx context.Context, event models.IngestionEvent) {
	if l.events == nil {
		return
	}
	var err error
	if event.EventType == models.EventDayFailed {
		err = l.events.PublishDayFailed(ctx, event)
	} else {
		err = l.events.PublishDayCompleted(ctx, event)
	}
	if err != nil {
		l.logger.WithField("date", event.Date).Warnf("failed to publish ingestion event: %v", err)
	}
}

func distinctTickers(bars []models.Bar) int {
	seen := make(map[string]bool, len(bars))
	for _, bar := range bars {
		seen[bar.Ticker] = true
	}
	return len(seen)
}
