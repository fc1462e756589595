package coordinator

import (
	"time"

	"github.com/wastore/tocmover/common"
)

// jobState is the one-and-only active job's mutable state, touched only
// from the coordinator's single agent goroutine (spec §4.3, §5).
type jobState struct {
	id          string
	source      string
	destination string
	opts        common.JobOptions

	status common.JobStatus

	manifestTotal int // files in the transfer and ghost-link buckets (ignored files excluded), for progress accounting
	queue         workQueue
	workers       map[string]*workerHandle
	inFlight      map[string]common.WorkItem // workerID -> item currently dispatched
	moverJobIDs   map[string]int64           // workerID -> data-mover async job id currently in flight

	completed        []common.FileRecord
	failed           []common.FailedFile
	ignoredCount     int
	ghostLinkedCount int

	totalBytes       int64
	transferredBytes int64

	startTime time.Time
	warnings  []string

	cancel func() // cancels the job-scoped context; used by abort
}

// workerHandle is the coordinator's view of one spawned worker (spec §3).
type workerHandle struct {
	id       string
	provider common.Provider
	cmdCh    chan workerCmd
}

// isDoneDraining reports whether every item has either finished or
// finalized as failed and nothing remains in flight or queued. Worker
// goroutines themselves stay parked (idle, blocked on their command
// channel) until explicitly stopped — they are not torn down just
// because the queue emptied, so completion is judged by work remaining,
// not by worker count.
func (j *jobState) isDoneDraining() bool {
	return j.queue.len() == 0 && len(j.inFlight) == 0
}

func (j *jobState) snapshot() common.JobSnapshot {
	elapsed := time.Since(j.startTime).Seconds()
	if elapsed <= 0 {
		elapsed = 0.000001
	}
	throughput := float64(j.transferredBytes) / elapsed / 1e6

	progress := 0.0
	if j.totalBytes > 0 {
		progress = float64(j.transferredBytes) / float64(j.totalBytes) * 100
	}

	return common.JobSnapshot{
		JobID:             j.id,
		Status:            j.status,
		Source:            j.source,
		Destination:       j.destination,
		TotalFiles:        j.manifestTotal,
		CompletedCount:    len(j.completed),
		FailedCount:       len(j.failed),
		QueuedCount:       j.queue.len(),
		IgnoredCount:      j.ignoredCount,
		GhostLinkedCount:  j.ghostLinkedCount,
		TotalBytes:        j.totalBytes,
		TransferredBytes:  j.transferredBytes,
		ProgressPercent:   progress,
		ActiveWorkerCount: len(j.workers),
		ElapsedSeconds:    elapsed,
		ThroughputMBPS:    throughput,
		FailedFiles:       append([]common.FailedFile(nil), j.failed...),
		Warnings:          append([]string(nil), j.warnings...),
	}
}
