package storage

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionSweeper deletes published export files once they outlive the
// configured retention age. Runs on a cron schedule outside the export core;
// downloads of a swept file simply see FileNotFound.
type RetentionSweeper struct {
	store    *DiskStore
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
}

func NewRetentionSweeper(store *DiskStore, maxAge time.Duration, schedule string) *RetentionSweeper {
	return &RetentionSweeper{
		store:    store,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start schedules the sweep. The schedule is a standard 5-field cron
// expression or a @every descriptor.
func (s *RetentionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(); err != nil {
			log.Printf("Retention sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Printf("Retention sweeper started (schedule: %s, max age: %s)", s.schedule, s.maxAge)
	return nil
}

func (s *RetentionSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Retention sweeper stopped")
}

// Sweep removes files older than the retention age and returns how many
// were deleted.
func (s *RetentionSweeper) Sweep() (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	removed, err := s.store.RemoveOlderThan(cutoff)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		log.Printf("Retention sweep removed %d expired export file(s)", removed)
	}
	return removed, nil
}
