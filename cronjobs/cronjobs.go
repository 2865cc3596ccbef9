package cronjobs

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/robfig/cron/v3"

	"ciudamos/db"
	"ciudamos/metrics"
	"ciudamos/store"
)

const mirrorTimeout = time.Minute

// Snapshotter produces the persisted envelope of the report list.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// Mirror copies the current envelope into dst under the store key.
func Mirror(ctx context.Context, src Snapshotter, dst db.KV) error {
	raw, err := src.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot reports: %w", err)
	}
	if err := dst.Set(ctx, store.Key, raw); err != nil {
		return fmt.Errorf("mirror reports: %w", err)
	}
	return nil
}

// InitCronJobs schedules the envelope mirror and starts the scheduler. The
// caller stops it with Stop.
func InitCronJobs(schedule string, src Snapshotter, dst db.KV) (*cron.Cron, error) {
	log.Info("Starting Cron Jobs")
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := Mirror(ctx, src, dst); err != nil {
			metrics.MirrorRunsTotal.WithLabelValues("error").Inc()
			log.WithError(err).Error("CronJob: report mirror failed")
			return
		}
		metrics.MirrorRunsTotal.WithLabelValues("ok").Inc()
		log.Info("CronJob: report mirror done")
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling report mirror %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}
