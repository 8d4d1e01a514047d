// Package retention prunes old delivery journal rows on a cron schedule.
package retention

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"indigo/internal/storage/sqlite"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner with a single prune job.
type Scheduler struct {
	cron *cron.Cron
}

// PruneOnce deletes deliveries older than retentionDays relative to now.
func PruneOnce(db *sql.DB, retentionDays int, now time.Time) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention days must be >= 1, got %d", retentionDays)
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	removed, err := sqlite.PruneDeliveriesBefore(db, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return removed, nil
}

// StartScheduler registers the prune job and starts the runner. The schedule
// is a standard 5-field cron expression or a descriptor such as "@daily".
func StartScheduler(db *sql.DB, schedule string, retentionDays int, loc *time.Location) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(schedule, func() {
		removed, err := PruneOnce(db, retentionDays, time.Now().In(loc))
		if err != nil {
			log.Printf("retention prune error: %v", err)
			return
		}
		log.Printf("retention pruned deliveries=%d retention_days=%d", removed, retentionDays)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule '%s': %w", schedule, err)
	}

	c.Start()
	entries := c.Entries()
	if len(entries) > 0 {
		log.Printf("Journal retention scheduled (cron: %s, keep %d days), next run at %s",
			schedule, retentionDays, entries[0].Next.Format("Mon Jan 2 15:04"))
	}
	return &Scheduler{cron: c}, nil
}

// Stop halts the runner and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
