package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultSyncIntervalMinutes is how often the background cloud sync
// runs when SYNC_INTERVAL_MINUTES is not set
const DefaultSyncIntervalMinutes = 10

// Syncer is the piece of the sync reconciler the scheduler drives
type Syncer interface {
	UserID() string
	SyncNow(ctx context.Context) error
}

// Scheduler runs the periodic cloud synchronization in the background
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
}

// New creates a new scheduler instance
func New(syncer Syncer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		syncer:    syncer,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.scheduler.Every(syncIntervalMinutes()).Minutes().Do(s.runSync)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// runSync performs one background reconciliation pass
func (s *Scheduler) runSync() {
	// 未登录时不做云同步
	if s.syncer.UserID() == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.syncer.SyncNow(ctx); err != nil {
		log.Printf("Background sync failed: %v", err)
	}
}

// RunManualCheck forces an immediate sync pass
func (s *Scheduler) RunManualCheck(ctx context.Context) error {
	if s.syncer.UserID() == "" {
		return nil
	}
	return s.syncer.SyncNow(ctx)
}

// syncIntervalMinutes reads the interval from the environment,
// falling back to the default on bad values
func syncIntervalMinutes() int {
	if v := os.Getenv("SYNC_INTERVAL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			return minutes
		}
	}
	return DefaultSyncIntervalMinutes
}
