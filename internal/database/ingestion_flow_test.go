package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoore-prog/stock-market-pipeline/internal/config"
	"github.com/tmoore-prog/stock-market-pipeline/internal/ingest"
	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// countingFetcher serves a fixed number of bars per day and counts calls.
type countingFetcher struct {
	barsPerDay int
	calls      int
}

func (f *countingFetcher) FetchDailyBars(_ context.Context, date time.Time) ([]models.Bar, error) {
	f.calls++
	bars := make([]models.Bar, f.barsPerDay)
	for i := range bars {
		bars[i] = models.Bar{
			Ticker:       "TCK" + string(rune('A'+i)),
			Volume:       1000,
			VWAP:         decimal.NewFromFloat(10.2),
			Open:         decimal.NewFromFloat(10.0),
			Close:        decimal.NewFromFloat(10.5),
			High:         decimal.NewFromFloat(11.0),
			Low:          decimal.NewFromFloat(9.5),
			Timestamp:    date.UnixMilli(),
			Transactions: 50,
		}
	}
	return bars, nil
}

// TestIngestionFlow drives the real orchestrator, loader, and stores
// against a containerized warehouse over a five-session week.
func TestIngestionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// Saturday after the full trading week of 2024-03-11 .. 2024-03-15
	now := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	cfg := config.BackfillConfig{
		CalendarID:       "NYSE",
		DaysBackOverride: 4,
		PacingInterval:   20 * time.Second,
	}

	newBackfill := func(fetcher ingest.Fetcher) *ingest.Backfill {
		loader := ingest.NewLoader(testDB.DB, testDB.DB, nil, logger)
		return ingest.NewBackfill(cfg, fetcher, loader, testDB.DB, nil, logger,
			ingest.WithClock(func() time.Time { return now }),
			ingest.WithSleep(func(time.Duration) {}),
		)
	}

	t.Run("full week loads and checkpoints every session", func(t *testing.T) {
		testDB.TruncateAll(t)

		fetcher := &countingFetcher{barsPerDay: 20}
		require.NoError(t, newBackfill(fetcher).Run(context.Background()))

		assert.Equal(t, 5, fetcher.calls)

		completed, err := testDB.CompletedDates(context.Background())
		require.NoError(t, err)
		assert.Len(t, completed, 5)

		var totalRows int64
		err = testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM market_data`).Scan(&totalRows)
		require.NoError(t, err)
		assert.Equal(t, int64(100), totalRows)

		stats, err := testDB.IngestionStats(context.Background())
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, int64(100), stats.TotalRows)
		assert.Equal(t, int64(5), stats.DaysProcessed)
	})

	t.Run("second run over a completed window fetches nothing", func(t *testing.T) {
		testDB.TruncateAll(t)

		first := &countingFetcher{barsPerDay: 20}
		require.NoError(t, newBackfill(first).Run(context.Background()))
		require.Equal(t, 5, first.calls)

		second := &countingFetcher{barsPerDay: 20}
		require.NoError(t, newBackfill(second).Run(context.Background()))
		assert.Zero(t, second.calls, "completed days must not be refetched")

		var totalRows int64
		err := testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM market_data`).Scan(&totalRows)
		require.NoError(t, err)
		assert.Equal(t, int64(100), totalRows)
	})
}
