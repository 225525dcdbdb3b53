package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/callouthq/dispatch/internal/api/domain"
	"github.com/callouthq/dispatch/shared/redis"
)

const (
	// writeThrottle caps how often a job's live position is rewritten.
	// Engineers' apps report aggressively; anything fresher than this
	// adds no value to a map view.
	writeThrottle = 2 * time.Second

	// sampleTTL expires stale positions so a closed app does not leave
	// a ghost marker behind.
	sampleTTL = 15 * time.Minute
)

// Tracker stores the latest live engineer position per job in Redis so
// every stateless API replica serves the same tracking view. Samples
// are advisory telemetry: racing writers are last-writer-wins and
// nothing here ever feeds pricing.
type Tracker struct {
	rdb    *goredis.Client
	logger *slog.Logger
}

// NewTracker creates a tracker on the shared Redis client.
func NewTracker(client *redis.Client, logger *slog.Logger) *Tracker {
	return &Tracker{
		rdb:    client.GetRDB(),
		logger: logger,
	}
}

// Update stores the sample as the job's current position. Returns
// false when the write was throttled.
func (t *Tracker) Update(ctx context.Context, sample domain.LocationSample) (bool, error) {
	throttleKey := t.throttleKey(sample.JobID)

	// SETNX with the throttle TTL: only the first writer inside the
	// window goes through.
	ok, err := t.rdb.SetNX(ctx, throttleKey, 1, writeThrottle).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check tracking throttle: %w", err)
	}
	if !ok {
		return false, nil
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return false, fmt.Errorf("failed to marshal location sample: %w", err)
	}

	if err := t.rdb.Set(ctx, t.locationKey(sample.JobID), payload, sampleTTL).Err(); err != nil {
		return false, fmt.Errorf("failed to store location sample: %w", err)
	}

	t.logger.Debug("Live location updated",
		slog.Int64("job_id", sample.JobID),
	)

	return true, nil
}

// Latest returns the job's current position, or nil when no fresh
// sample exists.
func (t *Tracker) Latest(ctx context.Context, jobID int64) (*domain.LocationSample, error) {
	payload, err := t.rdb.Get(ctx, t.locationKey(jobID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read location sample: %w", err)
	}

	var sample domain.LocationSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location sample: %w", err)
	}

	return &sample, nil
}

func (t *Tracker) locationKey(jobID int64) string {
	return fmt.Sprintf("tracking:job:%d:location", jobID)
}

func (t *Tracker) throttleKey(jobID int64) string {
	return fmt.Sprintf("tracking:job:%d:throttle", jobID)
}
