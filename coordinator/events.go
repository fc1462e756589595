package coordinator

import "github.com/wastore/tocmover/common"

// coordinatorMsg is the single message envelope every inbound request —
// public operation or worker event — passes through the coordinator's
// agent goroutine (spec §4.3.3: "all handlers must execute atomically from
// the coordinator's perspective").
type coordinatorMsg struct {
	kind  string
	args  interface{}
	reply chan coordinatorReply
}

type coordinatorReply struct {
	err   error
	value interface{}
}

const (
	msgStart      = "start"
	msgStatus     = "status"
	msgPause      = "pause"
	msgResume     = "resume"
	msgAbort      = "abort"
	msgCompleted  = "completed"
	msgFailed     = "failed"
	msgQuotaExh   = "quota_exhausted"
	msgWorkerDied = "worker_died"
	msgJobStarted = "mover_job_started"
)

type startArgs struct {
	source      string
	destination string
	opts        common.JobOptions
}

// jobStartedArgs reports the data mover's async job id for a worker's
// in-flight copy, so abort can issue a best-effort job/stop against it
// (spec §5 Cancellation).
type jobStartedArgs struct {
	workerID string
	jobID    int64
}

type completedArgs struct {
	workerID string
	file     common.FileRecord
	bytes    int64
	credID   string
}

type failedArgs struct {
	workerID string
	item     common.WorkItem
	reason   string
}

// quotaExhaustedArgs reports a worker that could not check out a
// credential for item (spec §4.3.3). A nil item means "this worker has
// finished its park_until_reset wait and is ready for new work" — the
// re-dispatch-after-reset signal (spec §4.4 step 3).
type quotaExhaustedArgs struct {
	workerID string
	provider common.Provider
	item     *common.WorkItem
}

type workerDiedArgs struct {
	workerID string
}

// workerCmd is what the coordinator sends down a worker's command channel
// (spec §4.4).
type workerCmd struct {
	kind string
	item common.WorkItem
}

const (
	workerCmdWork           = "job"
	workerCmdParkUntilReset = "park_until_reset"
	workerCmdStop           = "stop"
)
