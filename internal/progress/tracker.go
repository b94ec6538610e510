package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

const keyPrefix = "backfill:progress:"

// progressTTL keeps finished runs visible for a while without
// accumulating keys forever.
const progressTTL = 24 * time.Hour

// Tracker stores the live position of backfill runs in Redis so the ops
// API can report progress while a run is executing.
type Tracker struct {
	client *redis.Client
}

// NewTracker connects to Redis at addr
func NewTracker(addr string) *Tracker {
	return &Tracker{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Update stores the run's current progress
func (t *Tracker) Update(ctx context.Context, progress models.RunProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := t.client.Set(ctx, keyPrefix+progress.RunID, data, progressTTL).Err(); err != nil {
		return fmt.Errorf("failed to store progress: %w", err)
	}
	return nil
}

// Get returns the stored progress for a run, or nil when the run is
// unknown or expired.
func (t *Tracker) Get(ctx context.Context, runID string) (*models.RunProgress, error) {
	data, err := t.client.Get(ctx, keyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	var progress models.RunProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &progress, nil
}

// Close closes the Redis connection
func (t *Tracker) Close() error {
	return t.client.Close()
}
