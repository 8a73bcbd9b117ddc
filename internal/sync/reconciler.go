package sync

import (
	"context"
	"fmt"
	"log"
	stdsync "sync"
	"time"

	"github.com/example/tmtvocab/pkg/models"
)

// RemoteStore reads and writes whole progress snapshots keyed by an opaque
// user identity. ok=false from Pull means "no remote record yet", which is
// a valid, non-error outcome.
type RemoteStore interface {
	Pull(ctx context.Context, userID string) (snapshot map[string]models.Progress, ok bool, err error)
	Push(ctx context.Context, userID string, snapshot map[string]models.Progress) error
}

// LocalStore is the slice of the progress store the reconciler needs
type LocalStore interface {
	Snapshot() map[string]models.Progress
	ReplaceAll(merged map[string]models.Progress) error
}

// Merge combines a local and a remote progress snapshot, last write wins
// per word on lastReviewed. Remote wins only on a strictly later
// timestamp; ties keep local. Words present only locally are retained.
// Remote records are normalized first, since historical snapshots have
// arrived with missing fields.
func Merge(local, remote map[string]models.Progress) map[string]models.Progress {
	merged := make(map[string]models.Progress, len(local))
	for id, p := range local {
		merged[id] = p
	}

	now := time.Now()
	for id, remoteProgress := range remote {
		remoteProgress.Normalize(id, now)

		localProgress, exists := merged[id]
		if !exists {
			// 本地没有，使用云端
			merged[id] = remoteProgress
			continue
		}

		// 比较最后复习时间，取更新的
		if remoteProgress.LastReviewed.After(localProgress.LastReviewed) {
			merged[id] = remoteProgress
		}
	}

	return merged
}

// Reconciler keeps local progress and the remote store converged
type Reconciler struct {
	mu     stdsync.Mutex
	local  LocalStore
	remote RemoteStore
	userID string

	lastSyncTime time.Time
	syncing      bool
}

// NewReconciler creates a reconciler; userID may be attached later
func NewReconciler(local LocalStore, remote RemoteStore) *Reconciler {
	return &Reconciler{
		local:  local,
		remote: remote,
	}
}

// AttachUser sets the identity used for remote reads and writes. An empty
// id detaches and turns sync into a no-op (local-only mode).
func (r *Reconciler) AttachUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = userID
}

// UserID returns the currently attached identity, empty when local-only
func (r *Reconciler) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// LastSyncTime returns when the last successful sync finished, zero when
// never synced
func (r *Reconciler) LastSyncTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSyncTime
}

// IsSyncing reports whether a sync is currently running
func (r *Reconciler) IsSyncing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncing
}

// SyncNow pulls the remote snapshot, merges it with local state, and
// pushes the merge result back so the remote converges to it. When no
// remote record exists yet, local state is pushed as-is. Failures leave
// local state untouched; the operation is idempotent and retryable.
func (r *Reconciler) SyncNow(ctx context.Context) error {
	r.mu.Lock()
	if r.userID == "" {
		r.mu.Unlock()
		return nil // local-only mode
	}
	if r.syncing {
		r.mu.Unlock()
		return fmt.Errorf("sync already in progress")
	}
	userID := r.userID
	r.syncing = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.syncing = false
		r.mu.Unlock()
	}()

	remoteSnapshot, exists, err := r.remote.Pull(ctx, userID)
	if err != nil {
		log.Printf("Sync pull failed for user %s: %v", userID, err)
		return fmt.Errorf("failed to pull remote progress: %v", err)
	}

	snapshot := r.local.Snapshot()
	if exists {
		snapshot = Merge(snapshot, remoteSnapshot)
		if err := r.local.ReplaceAll(snapshot); err != nil {
			return fmt.Errorf("failed to store merged progress: %v", err)
		}
	}

	if err := r.remote.Push(ctx, userID, snapshot); err != nil {
		log.Printf("Sync push failed for user %s: %v", userID, err)
		return fmt.Errorf("failed to push progress: %v", err)
	}

	r.mu.Lock()
	r.lastSyncTime = time.Now()
	r.mu.Unlock()
	return nil
}
