package sync

import (
	"context"
	"log"
	stdsync "sync"
	"time"

	"github.com/example/tmtvocab/pkg/models"
)

// DefaultDebounceWindow is how long local mutations are coalesced before
// one remote write fires
const DefaultDebounceWindow = 2 * time.Second

// Debouncer coalesces bursts of local progress mutations into a single
// remote push after a quiet period. A write pending when the process
// exits is lost; the next sync reconciles it.
type Debouncer struct {
	mu      stdsync.Mutex
	remote  RemoteStore
	userID  func() string
	window  time.Duration
	timeout time.Duration

	pending map[string]models.Progress
	timer   *time.Timer
}

// NewDebouncer creates a debouncer pushing through remote. userID is
// consulted at fire time; an empty id drops the pending write.
func NewDebouncer(remote RemoteStore, userID func() string) *Debouncer {
	return &Debouncer{
		remote:  remote,
		userID:  userID,
		window:  DefaultDebounceWindow,
		timeout: 15 * time.Second,
	}
}

// SetWindow overrides the quiet period, used in tests
func (d *Debouncer) SetWindow(window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.window = window
}

// ScheduleWrite replaces the pending payload and restarts the quiet-period
// timer. Only the latest snapshot survives a burst.
func (d *Debouncer) ScheduleWrite(snapshot map[string]models.Progress) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = snapshot
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Flush pushes any pending payload immediately. Tests and shutdown call
// this instead of waiting for real timers.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fire()
}

// Stop cancels any pending write without sending it
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	snapshot := d.pending
	d.pending = nil
	d.mu.Unlock()

	if snapshot == nil {
		return
	}

	userID := d.userID()
	if userID == "" {
		// signed out before the write fired
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.remote.Push(ctx, userID, snapshot); err != nil {
		// Lost writes are reconciled by the next full sync.
		log.Printf("Debounced progress push failed for user %s: %v", userID, err)
	}
}
