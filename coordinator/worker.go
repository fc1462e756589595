package coordinator

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/wastore/tocmover/common"
	"github.com/wastore/tocmover/mover"
)

// workerDeps bundles what a worker goroutine needs to run independently
// of the coordinator's internal state (spec §4.4: "It never shares state
// with peer workers"). A worker checks out a credential fresh for every
// work item rather than holding one sticky credential across its
// lifetime — that keeps quota-aware rotation (spec §8 invariant 2, S4)
// uniform with ordinary dispatch instead of needing a separate
// "hand the worker a new credential" hand-off (see DESIGN.md).
type workerDeps struct {
	id       string
	provider common.Provider
	sourceFs string
	destFs   string
	pool     CredentialPool
	mover    MoverClient
	logger   common.Logger
	eventsCh chan coordinatorMsg
	cmdCh    chan workerCmd
}

// runWorker is the C5 loop (spec §4.4): receive a command, act, repeat
// until stop or ctx cancellation. It is a plain goroutine; parking for a
// multi-hour reset sleep does not pin an OS thread (spec §9).
func runWorker(ctx context.Context, d workerDeps) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-d.cmdCh:
			if !ok {
				return
			}
			switch cmd.kind {
			case workerCmdStop:
				return
			case workerCmdParkUntilReset:
				d.parkUntilReset(ctx)
			case workerCmdWork:
				d.processWorkItem(ctx, cmd.item)
			}
		}
	}
}

// parkUntilReset sleeps until the provider's next reset, then tells the
// coordinator it is ready for new work (spec §4.4 step 3).
func (d workerDeps) parkUntilReset(ctx context.Context) {
	wait := d.pool.TimeUntilReset(d.provider)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		d.sendEvent(coordinatorMsg{kind: msgQuotaExh, args: quotaExhaustedArgs{workerID: d.id, provider: d.provider, item: nil}})
	}
}

func (d workerDeps) sendEvent(msg coordinatorMsg) {
	select {
	case d.eventsCh <- msg:
	case <-time.After(5 * time.Second):
		// coordinator gone or backed up; drop rather than leak the goroutine
	}
}

// processWorkItem implements spec §4.4 step 2: checkout a credential sized
// for this file, invoke the data mover, and report the outcome.
func (d workerDeps) processWorkItem(ctx context.Context, item common.WorkItem) {
	// Backoff before any attempt beyond the first (spec §4.3.4).
	if item.Attempts > 0 && item.Attempts <= len(retryBackoff) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryBackoff[item.Attempts-1]):
		}
	}

	var credID string
	snap, err := d.pool.Checkout(d.provider, item.File.Size)
	switch {
	case err == nil:
		credID = snap.ID
	case errors.Is(err, common.ErrQuotaExhausted):
		it := item
		d.sendEvent(coordinatorMsg{kind: msgQuotaExh, args: quotaExhaustedArgs{workerID: d.id, provider: d.provider, item: &it}})
		return
	case errors.Is(err, common.ErrNoCredentials):
		// Credential-less providers may still succeed (spec §4.3.1 step 7).
		credID = ""
	default:
		d.sendEvent(coordinatorMsg{kind: msgFailed, args: failedArgs{workerID: d.id, item: item, reason: err.Error()}})
		return
	}

	jobID, err := d.mover.CopyFile(ctx, mover.CopyFileOptions{
		SrcFs:     d.sourceFs,
		SrcRemote: item.File.Path,
		DstFs:     d.destFs,
		DstRemote: path.Clean(item.File.Path),
	})
	if err == nil {
		d.sendEvent(coordinatorMsg{kind: msgJobStarted, args: jobStartedArgs{workerID: d.id, jobID: jobID}})
		err = d.mover.AwaitJob(ctx, jobID, nil)
	}

	if err != nil {
		d.sendEvent(coordinatorMsg{kind: msgFailed, args: failedArgs{workerID: d.id, item: item, reason: err.Error()}})
		return
	}

	if credID != "" {
		_ = d.pool.RecordUsage(credID, item.File.Size)
	}
	d.sendEvent(coordinatorMsg{kind: msgCompleted, args: completedArgs{workerID: d.id, file: item.File, bytes: item.File.Size, credID: credID}})
}
