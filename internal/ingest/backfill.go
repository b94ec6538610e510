package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tmoore-prog/stock-market-pipeline/internal/calendar"
	"github.com/tmoore-prog/stock-market-pipeline/internal/config"
	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// Fetcher retrieves one trading day's dataset from the upstream API.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, date time.Time) ([]models.Bar, error)
}

// DayLoader persists one day's dataset and its checkpoints.
type DayLoader interface {
	Load(ctx context.Context, bars []models.Bar, date time.Time, runID string) error
}

// CheckpointReader is the orchestrator's read-side view of the checkpoint
// store.
type CheckpointReader interface {
	CompletedDates(ctx context.Context) (map[string]bool, error)
	IngestionStats(ctx context.Context) (*models.IngestionStats, error)
}

// ProgressTracker publishes the run's live position for the ops API.
type ProgressTracker interface {
	Update(ctx context.Context, progress models.RunProgress) error
}

// Backfill drives one resumable ingestion pass: it computes the trading
// days still missing a completed checkpoint and processes them in
// chronological order, one at a time, paced to stay under the upstream
// rate limit.
type Backfill struct {
	fetcher     Fetcher
	loader      DayLoader
	checkpoints CheckpointReader
	tracker     ProgressTracker // nil when progress tracking is disabled
	logger      *logrus.Logger

	calendarID       string
	yearsBack        int
	daysBackOverride int
	pacingInterval   time.Duration

	// injected for tests
	tradingDays func(start, end time.Time, calendarID string) ([]time.Time, error)
	now         func() time.Time
	sleep       func(time.Duration)
}

// Option overrides a Backfill collaborator, used by tests to control
// timing.
type Option func(*Backfill)

// WithClock replaces the orchestrator's time source
func WithClock(now func() time.Time) Option {
	return func(b *Backfill) { b.now = now }
}

// WithSleep replaces the pacing sleep
func WithSleep(sleep func(time.Duration)) Option {
	return func(b *Backfill) { b.sleep = sleep }
}

// NewBackfill creates an orchestrator from configuration. tracker may be
// nil.
func NewBackfill(cfg config.BackfillConfig, fetcher Fetcher, loader DayLoader, checkpoints CheckpointReader, tracker ProgressTracker, logger *logrus.Logger, opts ...Option) *Backfill {
	b := &Backfill{
		fetcher:          fetcher,
		loader:           loader,
		checkpoints:      checkpoints,
		tracker:          tracker,
		logger:           logger,
		calendarID:       cfg.CalendarID,
		yearsBack:        cfg.YearsBack,
		daysBackOverride: cfg.DaysBackOverride,
		pacingInterval:   cfg.PacingInterval,
		tradingDays:      calendar.TradingDays,
		now:              time.Now,
		sleep:            time.Sleep,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes one backfill pass. Re-invoking Run over the same window
// reprocesses only days without a completed checkpoint.
func (b *Backfill) Run(ctx context.Context) error {
	runID := b.now().Format("20060102_150405")
	b.logger.WithField("run_id", runID).Info("starting historical data load")

	endDate := truncateToDay(b.now()).AddDate(0, 0, -1)
	var startDate time.Time
	if b.daysBackOverride > 0 {
		startDate = endDate.AddDate(0, 0, -b.daysBackOverride)
	} else {
		startDate = endDate.AddDate(-b.yearsBack, 0, 0)
	}

	// A checkpoint read failure degrades to "nothing completed yet":
	// redundant reprocessing is preferred over halting the backfill.
	completed, err := b.checkpoints.CompletedDates(ctx)
	if err != nil {
		b.logger.Warnf("could not read checkpoint table, starting fresh: %v", err)
		completed = make(map[string]bool)
	}

	days, err := b.tradingDays(startDate, endDate, b.calendarID)
	if err != nil {
		return err
	}

	totalDays := len(days)
	remaining := 0
	for _, day := range days {
		if !completed[day.Format("2006-01-02")] {
			remaining++
		}
	}

	b.logger.WithFields(logrus.Fields{
		"total_days": totalDays,
		"completed":  len(completed),
		"remaining":  remaining,
	}).Info("computed work list")

	processed := 0
	skipped := 0
	for i, day := range days {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dateStr := day.Format("2006-01-02")
		if completed[dateStr] {
			skipped++
			b.logger.WithFields(logrus.Fields{
				"date":     dateStr,
				"progress": progressString(i+1, totalDays),
			}).Info("skipping completed day")
			continue
		}

		b.logger.WithFields(logrus.Fields{
			"date":      dateStr,
			"progress":  progressString(i+1, totalDays),
			"remaining": remaining,
		}).Info("processing day")

		bars, err := b.fetcher.FetchDailyBars(ctx, day)
		if err != nil {
			b.logger.WithField("date", dateStr).Warnf("data not downloaded: %v", err)
			bars = nil
		}

		if err := b.loader.Load(ctx, bars, day, runID); err != nil {
			b.logger.WithField("date", dateStr).Errorf("load failed: %v", err)
		}

		processed++
		remaining--
		b.publishProgress(ctx, models.RunProgress{
			RunID:       runID,
			CurrentDate: dateStr,
			TotalDays:   totalDays,
			Processed:   processed,
			Skipped:     skipped,
			Remaining:   remaining,
			UpdatedAt:   b.now().UTC(),
		})

		b.sleep(b.pacingInterval)
	}

	b.logger.WithFields(logrus.Fields{
		"run_id":     runID,
		"total_days": totalDays,
		"processed":  processed,
		"skipped":    skipped,
	}).Info("finished processing trading days")

	b.logSummary(ctx)
	return nil
}

// logSummary reports end-of-run ingestion statistics. Absence of stats is
// not an error.
func (b *Backfill) logSummary(ctx context.Context) {
	stats, err := b.checkpoints.IngestionStats(ctx)
	if err != nil {
		b.logger.Warnf("could not read ingestion stats: %v", err)
		return
	}
	if stats == nil {
		return
	}
	b.logger.WithFields(logrus.Fields{
		"days_processed":      stats.DaysProcessed,
		"total_rows":          stats.TotalRows,
		"avg_tickers_per_day": stats.AvgTickersPerDay,
		"earliest_date":       stats.EarliestDate.Format("2006-01-02"),
		"latest_date":         stats.LatestDate.Format("2006-01-02"),
		"failed_runs":         stats.FailedRuns,
	}).Info("ingestion summary")
}

func (b *Backfill) publishProgress(ctx context.Context, progress models.RunProgress) {
	if b.tracker == nil {
		return
	}
	if err := b.tracker.Update(ctx, progress); err != nil {
		b.logger.Warnf("failed to publish run progress: %v", err)
	}
}

func progressString(current, total int) string {
	return fmt.Sprintf("%d/%d", current, total)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
