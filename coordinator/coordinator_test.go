package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastore/tocmover/common"
	"github.com/wastore/tocmover/mover"
)

// fakeMover is a minimal in-memory stand-in for mover.Client, letting tests
// drive CopyFile/AwaitJob outcomes per source path without a real data
// mover process (spec §4.5's facade is a dependency here, not this
// package's concern).
type fakeMover struct {
	mu        sync.Mutex
	entries   []mover.ListEntry
	failPaths map[string]int // remaining failures before success, per path
	copied    []string
	linked    []string
	linkErr   error
	nextJobID int64
	stopped   []int64
	delay     time.Duration // artificial per-transfer delay, for pause/abort timing tests
}

func (f *fakeMover) List(ctx context.Context, fs, path string, recursive bool) ([]mover.ListEntry, error) {
	return f.entries, nil
}

func (f *fakeMover) CopyFile(ctx context.Context, opts mover.CopyFileOptions) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextJobID++
	f.copied = append(f.copied, opts.SrcRemote)
	return f.nextJobID, nil
}

func (f *fakeMover) AwaitJob(ctx context.Context, jobID int64, onProgress mover.ProgressFunc) error {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	path := f.copied[jobID-1]
	if n, ok := f.failPaths[path]; ok && n > 0 {
		f.failPaths[path] = n - 1
		return assertErr
	}
	return nil
}

func (f *fakeMover) PublicLink(ctx context.Context, fs, remote string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return "", f.linkErr
	}
	f.linked = append(f.linked, remote)
	return "https://example.invalid/" + remote, nil
}

func (f *fakeMover) StopJob(ctx context.Context, jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, jobID)
	return nil
}

var assertErr = errTransient{}

type errTransient struct{}

func (errTransient) Error() string { return "transient copy failure" }

// fakePool is a minimal CredentialPool stand-in with unlimited quota and a
// configurable credential count for worker-pool sizing.
type fakePool struct {
	count int
}

func (p *fakePool) Checkout(provider common.Provider, bytesNeeded int64) (common.CredentialSnapshot, error) {
	return common.CredentialSnapshot{ID: "fake-cred", Provider: provider, Remaining: common.Unlimited}, nil
}
func (p *fakePool) RecordUsage(id string, bytes int64) error { return nil }
func (p *fakePool) TotalRemaining(provider common.Provider) int64 { return common.Unlimited }
func (p *fakePool) TimeUntilReset(provider common.Provider) time.Duration { return 0 }
func (p *fakePool) CredentialCount(provider common.Provider) int {
	if p.count == 0 {
		return 1
	}
	return p.count
}

func waitForStatus(t *testing.T, c *Coordinator, want common.JobStatus, timeout time.Duration) common.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		snap, err := c.Status()
		require.NoError(t, err)
		if snap.Status == want {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for status %s, last seen %s", want, snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestCoordinator(t *testing.T, m *fakeMover, p *fakePool) *Coordinator {
	c := NewCoordinator(m, p, common.NopLogger())
	t.Cleanup(c.Close)
	return c
}

func TestStart_DryRun_NoSideEffects(t *testing.T) {
	m := &fakeMover{entries: []mover.ListEntry{
		{Path: "a.txt", Name: "a.txt", Size: 10},
		{Path: "huge.braw", Name: "huge.braw", Size: 60_000_000_000}, // cold-storage link candidate
	}}
	p := &fakePool{}
	c := newTestCoordinator(t, m, p)

	opts := common.DefaultJobOptions()
	opts.DryRun = true
	snap, err := c.Start("s3:bucket/src", "gdrive:dst", opts)
	require.NoError(t, err)
	assert.Equal(t, common.EJobStatus.DryRunComplete(), snap.Status)
	assert.Equal(t, int64(0), snap.TransferredBytes)
	assert.Empty(t, m.copied)
	assert.Empty(t, m.linked, "dry_run must not resolve ghost links")
}

func TestStart_CompletesAllTransfers(t *testing.T) {
	m := &fakeMover{entries: []mover.ListEntry{
		{Path: "a.txt", Name: "a.txt", Size: 300},
		{Path: "b.txt", Name: "b.txt", Size: 100},
		{Path: "c.txt", Name: "c.txt", Size: 200},
	}}
	p := &fakePool{count: 2}
	c := newTestCoordinator(t, m, p)

	snap, err := c.Start("s3:bucket/src", "s3:bucket/dst", common.DefaultJobOptions())
	require.NoError(t, err)
	assert.Equal(t, common.EJobStatus.Running(), snap.Status)

	final := waitForStatus(t, c, common.EJobStatus.Completed(), 2*time.Second)
	assert.Equal(t, 3, final.CompletedCount)
	assert.Equal(t, 0, final.FailedCount)
	assert.Equal(t, int64(600), final.TransferredBytes)
}

func TestStart_RetriesThenFinalizesAfterExactlyThreeAttempts(t *testing.T) {
	m := &fakeMover{
		entries:   []mover.ListEntry{{Path: "flaky.txt", Name: "flaky.txt", Size: 50}},
		failPaths: map[string]int{"flaky.txt": 3}, // fails every attempt
	}
	p := &fakePool{count: 1}
	c := newTestCoordinator(t, m, p)

	opts := common.DefaultJobOptions()
	_, err := c.Start("s3:bucket/src", "s3:bucket/dst", opts)
	require.NoError(t, err)

	// Three attempts incur 1s + 5s of backoff between them (spec §4.3.4),
	// so the wait needs more headroom than the other, backoff-free tests.
	final := waitForStatus(t, c, common.EJobStatus.Completed(), 10*time.Second)
	require.Len(t, final.FailedFiles, 1)
	assert.Equal(t, 3, final.FailedFiles[0].Attempts)
	assert.Equal(t, 0, final.CompletedCount)
}

func TestStart_AlreadyRunning_ReturnsErrTransferInProgress(t *testing.T) {
	m := &fakeMover{entries: []mover.ListEntry{{Path: "a.txt", Name: "a.txt", Size: 10}}}
	p := &fakePool{count: 1}
	c := newTestCoordinator(t, m, p)

	_, err := c.Start("s3:bucket/src", "s3:bucket/dst", common.DefaultJobOptions())
	require.NoError(t, err)

	_, err = c.Start("s3:bucket/other", "s3:bucket/dst", common.DefaultJobOptions())
	assert.ErrorIs(t, err, common.ErrTransferInProgress)
}

func TestPauseThenResume(t *testing.T) {
	m := &fakeMover{delay: 100 * time.Millisecond, entries: []mover.ListEntry{
		{Path: "a.txt", Name: "a.txt", Size: 10},
		{Path: "b.txt", Name: "b.txt", Size: 20},
	}}
	p := &fakePool{count: 1}
	c := newTestCoordinator(t, m, p)

	_, err := c.Start("s3:bucket/src", "s3:bucket/dst", common.DefaultJobOptions())
	require.NoError(t, err)

	require.NoError(t, c.Pause())
	snap, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, common.EJobStatus.Paused(), snap.Status)

	require.NoError(t, c.Resume())
	waitForStatus(t, c, common.EJobStatus.Completed(), 2*time.Second)
}

func TestAbort_TransitionsPromptly(t *testing.T) {
	m := &fakeMover{delay: 2 * time.Second, entries: []mover.ListEntry{{Path: "a.txt", Name: "a.txt", Size: 10}}}
	p := &fakePool{count: 1}
	c := newTestCoordinator(t, m, p)

	_, err := c.Start("s3:bucket/src", "s3:bucket/dst", common.DefaultJobOptions())
	require.NoError(t, err)

	// Give the worker a moment to check out a credential and call CopyFile
	// so there is an in-flight mover job id for abort to best-effort stop.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, c.Abort())
	snap, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, common.EJobStatus.Aborted(), snap.Status)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.stopped) == 1
	}, time.Second, 5*time.Millisecond, "abort should best-effort job/stop the in-flight copy")
}

func TestStatus_NoActiveJob(t *testing.T) {
	c := newTestCoordinator(t, &fakeMover{}, &fakePool{})
	_, err := c.Status()
	assert.ErrorIs(t, err, common.ErrNoActiveJob)
}
