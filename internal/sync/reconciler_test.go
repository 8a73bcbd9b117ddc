package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tmtvocab/pkg/models"
)

var (
	t1 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
)

func record(wordID string, mastery int, lastReviewed time.Time) models.Progress {
	return models.Progress{
		WordID:       wordID,
		Mastery:      mastery,
		LastReviewed: lastReviewed,
		NextReview:   lastReviewed.Add(24 * time.Hour),
		UpdatedAt:    lastReviewed,
	}
}

func TestMergeRemoteWinsOnNewerTimestamp(t *testing.T) {
	local := map[string]models.Progress{"w": record("w", 40, t1)}
	remote := map[string]models.Progress{"w": record("w", 60, t2)}

	merged := Merge(local, remote)

	require.Len(t, merged, 1)
	assert.Equal(t, 60, merged["w"].Mastery)
	assert.Equal(t, t2, merged["w"].LastReviewed)
}

func TestMergeLocalWinsOnTieAndNewerLocal(t *testing.T) {
	local := map[string]models.Progress{
		"tie":   record("tie", 40, t1),
		"newer": record("newer", 80, t2),
	}
	remote := map[string]models.Progress{
		"tie":   record("tie", 75, t1),
		"newer": record("newer", 10, t1),
	}

	merged := Merge(local, remote)

	assert.Equal(t, 40, merged["tie"].Mastery)
	assert.Equal(t, 80, merged["newer"].Mastery)
}

func TestMergeKeepsDisjointWords(t *testing.T) {
	local := map[string]models.Progress{"onlyLocal": record("onlyLocal", 30, t1)}
	remote := map[string]models.Progress{"onlyRemote": record("onlyRemote", 55, t2)}

	merged := Merge(local, remote)

	require.Len(t, merged, 2)
	assert.Equal(t, 30, merged["onlyLocal"].Mastery)
	assert.Equal(t, 55, merged["onlyRemote"].Mastery)
}

func TestMergeIdempotent(t *testing.T) {
	local := map[string]models.Progress{
		"a": record("a", 40, t1),
		"b": record("b", 70, t2),
	}
	remote := map[string]models.Progress{
		"a": record("a", 60, t2),
		"c": record("c", 20, t1),
	}

	once := Merge(local, remote)
	twice := Merge(once, remote)

	assert.Equal(t, once, twice)
}

func TestMergeOutputHasMaxLastReviewed(t *testing.T) {
	local := map[string]models.Progress{"w": record("w", 40, t1)}
	remote := map[string]models.Progress{"w": record("w", 60, t2)}

	merged := Merge(local, remote)
	assert.Equal(t, t2, merged["w"].LastReviewed)

	merged = Merge(remote, local)
	assert.Equal(t, t2, merged["w"].LastReviewed)
}

func TestMergeNormalizesRemoteRecords(t *testing.T) {
	local := map[string]models.Progress{}
	remote := map[string]models.Progress{
		// missing word id, out-of-range mastery, negative counter
		"w": {Mastery: 250, CorrectCount: -3, LastReviewed: t2, NextReview: t2},
	}

	merged := Merge(local, remote)

	require.Len(t, merged, 1)
	assert.Equal(t, "w", merged["w"].WordID)
	assert.Equal(t, 100, merged["w"].Mastery)
	assert.Equal(t, 0, merged["w"].CorrectCount)
}

// fakeLocal implements LocalStore
type fakeLocal struct {
	snapshot map[string]models.Progress
	replaced map[string]models.Progress
}

func (f *fakeLocal) Snapshot() map[string]models.Progress {
	copied := make(map[string]models.Progress, len(f.snapshot))
	for k, v := range f.snapshot {
		copied[k] = v
	}
	return copied
}

func (f *fakeLocal) ReplaceAll(merged map[string]models.Progress) error {
	f.replaced = merged
	f.snapshot = merged
	return nil
}

// fakeRemote implements RemoteStore
type fakeRemote struct {
	snapshot map[string]models.Progress
	absent   bool
	pullErr  error
	pushErr  error
	pushed   []map[string]models.Progress
}

func (f *fakeRemote) Pull(ctx context.Context, userID string) (map[string]models.Progress, bool, error) {
	if f.pullErr != nil {
		return nil, false, f.pullErr
	}
	if f.absent {
		return nil, false, nil
	}
	return f.snapshot, true, nil
}

func (f *fakeRemote) Push(ctx context.Context, userID string, snapshot map[string]models.Progress) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, snapshot)
	f.snapshot = snapshot
	return nil
}

func TestSyncNowNoUserIsNoop(t *testing.T) {
	local := &fakeLocal{snapshot: map[string]models.Progress{"w": record("w", 40, t1)}}
	remote := &fakeRemote{absent: true}
	r := NewReconciler(local, remote)

	require.NoError(t, r.SyncNow(context.Background()))
	assert.Empty(t, remote.pushed)
	assert.True(t, r.LastSyncTime().IsZero())
}

func TestSyncNowPushesLocalWhenRemoteAbsent(t *testing.T) {
	local := &fakeLocal{snapshot: map[string]models.Progress{"w": record("w", 40, t1)}}
	remote := &fakeRemote{absent: true}
	r := NewReconciler(local, remote)
	r.AttachUser("user-1")

	require.NoError(t, r.SyncNow(context.Background()))

	require.Len(t, remote.pushed, 1)
	assert.Equal(t, 40, remote.pushed[0]["w"].Mastery)
	assert.Nil(t, local.replaced, "local state must not be rewritten")
	assert.False(t, r.LastSyncTime().IsZero())
}

func TestSyncNowMergesAndConverges(t *testing.T) {
	local := &fakeLocal{snapshot: map[string]models.Progress{"w": record("w", 40, t1)}}
	remote := &fakeRemote{snapshot: map[string]models.Progress{
		"w": record("w", 60, t2),
		"r": record("r", 25, t1),
	}}
	r := NewReconciler(local, remote)
	r.AttachUser("user-1")

	require.NoError(t, r.SyncNow(context.Background()))

	// local converged to the merge
	require.NotNil(t, local.replaced)
	assert.Equal(t, 60, local.replaced["w"].Mastery)
	assert.Equal(t, 25, local.replaced["r"].Mastery)

	// remote converged to the same merge
	require.Len(t, remote.pushed, 1)
	assert.Equal(t, local.replaced, remote.pushed[0])
}

func TestSyncNowPullFailureLeavesLocalUntouched(t *testing.T) {
	local := &fakeLocal{snapshot: map[string]models.Progress{"w": record("w", 40, t1)}}
	remote := &fakeRemote{pullErr: fmt.Errorf("network down")}
	r := NewReconciler(local, remote)
	r.AttachUser("user-1")

	err := r.SyncNow(context.Background())
	require.Error(t, err)
	assert.Nil(t, local.replaced)
	assert.True(t, r.LastSyncTime().IsZero())

	// retry succeeds once the network is back
	remote.pullErr = nil
	remote.absent = true
	require.NoError(t, r.SyncNow(context.Background()))
}

func TestSyncNowPushFailureStillKeepsMergedLocal(t *testing.T) {
	local := &fakeLocal{snapshot: map[string]models.Progress{"w": record("w", 40, t1)}}
	remote := &fakeRemote{
		snapshot: map[string]models.Progress{"w": record("w", 60, t2)},
		pushErr:  fmt.Errorf("write denied"),
	}
	r := NewReconciler(local, remote)
	r.AttachUser("user-1")

	err := r.SyncNow(context.Background())
	require.Error(t, err)

	// the merged result stays local; no already-recorded progress is lost
	require.NotNil(t, local.replaced)
	assert.Equal(t, 60, local.replaced["w"].Mastery)
	assert.True(t, r.LastSyncTime().IsZero())
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDebouncer(remote, func() string { return "user-1" })
	d.SetWindow(time.Hour) // never fires on its own during the test

	d.ScheduleWrite(map[string]models.Progress{"w": record("w", 15, t1)})
	d.ScheduleWrite(map[string]models.Progress{"w": record("w", 30, t1)})
	d.ScheduleWrite(map[string]models.Progress{"w": record("w", 45, t1)})

	d.Flush()

	require.Len(t, remote.pushed, 1, "burst must coalesce into one write")
	assert.Equal(t, 45, remote.pushed[0]["w"].Mastery)

	// nothing pending anymore
	d.Flush()
	assert.Len(t, remote.pushed, 1)
}

func TestDebouncerDropsWriteWhenSignedOut(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDebouncer(remote, func() string { return "" })
	d.SetWindow(time.Hour)

	d.ScheduleWrite(map[string]models.Progress{"w": record("w", 15, t1)})
	d.Flush()

	assert.Empty(t, remote.pushed)
}

func TestDebouncerStopDiscardsPending(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDebouncer(remote, func() string { return "user-1" })
	d.SetWindow(time.Hour)

	d.ScheduleWrite(map[string]models.Progress{"w": record("w", 15, t1)})
	d.Stop()
	d.Flush()

	assert.Empty(t, remote.pushed)
}
