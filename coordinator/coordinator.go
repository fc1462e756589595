package coordinator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wastore/tocmover/classify"
	"github.com/wastore/tocmover/common"
)

// enumerationTimeout bounds the initial operations/list call (spec §5:
// "enumeration must complete within 5 minutes or the start call fails").
const enumerationTimeout = 5 * time.Minute

// maxWorkers caps auto-sized worker counts (spec §4.3.1 step 7).
const maxWorkers = 32

// Coordinator is the single-job transfer coordinator agent (C4, spec §4.3).
// Like the credential pool, all state is owned by one goroutine reading
// coordinatorMsg off reqCh; workers report back on the same channel, so
// every state transition — operator-issued or worker-reported — is
// serialized the way the teacher's JobsAdmin serializes job-plan mutation.
type Coordinator struct {
	reqCh  chan coordinatorMsg
	done   chan struct{}
	mover  MoverClient
	pool   CredentialPool
	logger common.Logger
}

// NewCoordinator starts the coordinator's agent goroutine. Callers must
// call Close when done.
func NewCoordinator(mover MoverClient, pool CredentialPool, logger common.Logger) *Coordinator {
	if logger == nil {
		logger = common.NopLogger()
	}
	c := &Coordinator{
		reqCh:  make(chan coordinatorMsg),
		done:   make(chan struct{}),
		mover:  mover,
		pool:   pool,
		logger: logger,
	}
	go c.run()
	return c
}

// Close stops the coordinator's agent goroutine. Safe to call once.
func (c *Coordinator) Close() { close(c.done) }

func (c *Coordinator) call(kind string, args interface{}) coordinatorReply {
	reply := make(chan coordinatorReply, 1)
	select {
	case c.reqCh <- coordinatorMsg{kind: kind, args: args, reply: reply}:
	case <-c.done:
		return coordinatorReply{err: errors.New("coordinator closed")}
	}
	select {
	case r := <-reply:
		return r
	case <-c.done:
		return coordinatorReply{err: errors.New("coordinator closed")}
	}
}

// ---- public API -------------------------------------------------------

// Start enumerates source, classifies and schedules transferable files
// largest-first, and fans work out to a pool of workers (spec §4.3.1).
func (c *Coordinator) Start(source, destination string, opts common.JobOptions) (common.JobSnapshot, error) {
	r := c.call(msgStart, startArgs{source: source, destination: destination, opts: opts})
	if r.err != nil {
		return common.JobSnapshot{}, r.err
	}
	return r.value.(common.JobSnapshot), nil
}

// Status returns the current job's point-in-time snapshot (spec §4.3.2).
func (c *Coordinator) Status() (common.JobSnapshot, error) {
	r := c.call(msgStatus, nil)
	if r.err != nil {
		return common.JobSnapshot{}, r.err
	}
	return r.value.(common.JobSnapshot), nil
}

// Pause stops dispatching new work; in-flight items run to completion.
func (c *Coordinator) Pause() error {
	return c.call(msgPause, nil).err
}

// Resume re-dispatches queued work to every idle worker.
func (c *Coordinator) Resume() error {
	return c.call(msgResume, nil).err
}

// Abort cancels the job's context, stopping every worker within a bounded
// delay, and marks the job Aborted (spec §4.3.2, §5 Cancellation, S5).
func (c *Coordinator) Abort() error {
	return c.call(msgAbort, nil).err
}

// ---- agent loop ---------------------------------------------------------

func (c *Coordinator) run() {
	var job *jobState

	for {
		select {
		case <-c.done:
			if job != nil && job.cancel != nil {
				job.cancel()
			}
			return

		case msg := <-c.reqCh:
			switch msg.kind {
			case msgStart:
				a := msg.args.(startArgs)
				var reply coordinatorReply
				if job != nil && !job.status.IsTerminal() {
					reply = coordinatorReply{err: common.ErrTransferInProgress}
				} else if newJob, err := c.doStart(a); err != nil {
					reply = coordinatorReply{err: err}
				} else {
					job = newJob
					reply = coordinatorReply{value: job.snapshot()}
				}
				if msg.reply != nil {
					msg.reply <- reply
				}

			case msgStatus:
				reply := coordinatorReply{err: common.ErrNoActiveJob}
				if job != nil {
					reply = coordinatorReply{value: job.snapshot()}
				}
				if msg.reply != nil {
					msg.reply <- reply
				}

			case msgPause:
				err := c.doPause(job)
				if msg.reply != nil {
					msg.reply <- coordinatorReply{err: err}
				}

			case msgResume:
				err := c.doResume(job)
				if msg.reply != nil {
					msg.reply <- coordinatorReply{err: err}
				}

			case msgAbort:
				err := c.doAbort(job)
				if msg.reply != nil {
					msg.reply <- coordinatorReply{err: err}
				}

			case msgCompleted:
				c.onCompleted(job, msg.args.(completedArgs))

			case msgFailed:
				c.onFailed(job, msg.args.(failedArgs))

			case msgQuotaExh:
				c.onQuotaExhausted(job, msg.args.(quotaExhaustedArgs))

			case msgWorkerDied:
				c.onWorkerDied(job, msg.args.(workerDiedArgs))

			case msgJobStarted:
				c.onJobStarted(job, msg.args.(jobStartedArgs))
			}

			c.checkTerminal(job)
		}
	}
}

// doStart implements spec §4.3.1 steps 1-9.
func (c *Coordinator) doStart(a startArgs) (*jobState, error) {
	if a.opts.WorkerCount < 0 {
		return nil, errors.New("tocmover: worker_count must be non-negative")
	}

	// Step 1: enumerate, bounded to 5 minutes.
	enumCtx, enumCancel := context.WithTimeout(context.Background(), enumerationTimeout)
	defer enumCancel()
	entries, err := c.mover.List(enumCtx, a.source, "", true)
	if err != nil {
		return nil, errors.Wrap(common.ErrEnumerationFailed, err.Error())
	}

	files := make([]common.FileRecord, 0, len(entries))
	for _, e := range entries {
		files = append(files, common.FileRecord{
			Path: e.Path, Name: e.Name, Size: e.Size,
			ModTime: e.ModTime, MimeType: e.MimeType, IsDir: e.IsDir,
		})
	}

	// Step 2: largest-first ordering happens before classification so the
	// transfer bucket PartitionFiles produces is already sorted (spec
	// §4.3.1 steps 2-3).
	if a.opts.LargestFirst {
		sort.SliceStable(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	}

	rules := classify.Ruleset{ArchiveMode: a.opts.ArchiveMode}
	partitioned := classify.PartitionFiles(files, rules)

	jobCtx, cancel := context.WithCancel(context.Background())

	job := &jobState{
		id:          fmt.Sprintf("job-%d", len(a.source)+len(a.destination)+len(files)),
		source:      a.source,
		destination: a.destination,
		opts:        a.opts,
		status:      common.EJobStatus.Running(),
		workers:     make(map[string]*workerHandle),
		inFlight:    make(map[string]common.WorkItem),
		moverJobIDs: make(map[string]int64),
		startTime:   time.Now(),
		cancel:      cancel,
	}
	job.ignoredCount = len(partitioned.Ignore)

	// Step 4: ghost links are resolved as a synchronous side effect before
	// any bytes move (spec §4.1 rule 2, §9 LinkFailurePolicy). Convert and
	// Compress buckets are outside this repo's scope (spec Non-goals) and
	// are only counted, never acted on.
	for _, lf := range partitioned.Link {
		job.manifestTotal++
		if a.opts.DryRun {
			job.ghostLinkedCount++
			continue
		}
		remote := lf.File.Path
		_, linkErr := c.mover.PublicLink(jobCtx, a.destination, remote)
		if linkErr != nil {
			if a.opts.LinkFailurePolicy == common.ELinkFailurePolicy.Skip() {
				job.warnings = append(job.warnings, fmt.Sprintf("ghost-link failed for %s, skipped: %v", remote, linkErr))
				job.ignoredCount++
				continue
			}
			job.warnings = append(job.warnings, fmt.Sprintf("ghost-link failed for %s, demoted to transfer: %v", remote, linkErr))
			partitioned.Transfer = append(partitioned.Transfer, lf.File)
			continue
		}
		job.ghostLinkedCount++
	}

	for _, f := range partitioned.Transfer {
		job.manifestTotal++
		job.totalBytes += f.Size
		job.queue.enqueueTail(common.WorkItem{File: f})
	}

	// Step 5: cost warning when the destination provider's remaining quota
	// looks insufficient for the transfer bucket (spec §4.3.1 step 5).
	destProvider := detectProviderFromFs(a.destination)
	remaining := c.pool.TotalRemaining(destProvider)
	if remaining != common.Unlimited && remaining < job.totalBytes {
		job.warnings = append(job.warnings, fmt.Sprintf(
			"destination provider %s has %d bytes remaining quota, transfer needs %d",
			destProvider, remaining, job.totalBytes))
	}

	// Step 6: dry runs stop here with zero side effects, per spec §4.3.1
	// step 6 and §9's dry_run invariant: when dry_run is set the link loop
	// above skipped every PublicLink call (see its continue), and no worker
	// is spawned, so this is purely an accounting snapshot.
	if a.opts.DryRun {
		job.status = common.EJobStatus.DryRunComplete()
		cancel()
		return job, nil
	}

	// Nothing to transfer (everything was ignored or ghost-linked): finish
	// immediately rather than spawning workers that would sit idle forever
	// with nothing ever dispatched to them.
	if job.queue.len() == 0 {
		job.status = common.EJobStatus.Completed()
		cancel()
		return job, nil
	}

	// Step 7: size the worker pool.
	workerCount := a.opts.WorkerCount
	if workerCount == 0 {
		workerCount = c.pool.CredentialCount(destProvider)
	}
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > maxWorkers {
		workerCount = maxWorkers
	}

	// Step 8: spawn workers. They share an errgroup so that one worker's
	// unexpected exit cancels the group's derived context for its
	// siblings too, bounding how long an abort or a single worker crash
	// takes to quiesce the rest of the pool (spec §4.4, §5 Cancellation).
	eg, egCtx := errgroup.WithContext(jobCtx)
	for i := 0; i < workerCount; i++ {
		id := fmt.Sprintf("%s-w%d", job.id, i)
		handle := &workerHandle{id: id, provider: destProvider, cmdCh: make(chan workerCmd, 1)}
		job.workers[id] = handle
		deps := workerDeps{
			id: id, provider: destProvider,
			sourceFs: a.source, destFs: a.destination,
			pool: c.pool, mover: c.mover, logger: c.logger,
			eventsCh: c.reqCh, cmdCh: handle.cmdCh,
		}
		eg.Go(func() error { return c.runSupervisedWorker(egCtx, deps, id) })
	}
	go func() {
		if err := eg.Wait(); err != nil {
			c.logger.Log(common.ELogLevel.Warn(), "coordinator", "worker group ended with error", map[string]interface{}{"job_id": job.id, "error": err.Error()})
		}
	}()

	// Step 9: initial dispatch, one item per worker.
	for _, h := range job.workers {
		c.dispatchNext(job, h)
	}

	return job, nil
}

// runSupervisedWorker runs the worker loop and reports an unexpected exit
// as a worker_died event (spec §4.3.3, §8 invariant around worker crash
// handling) rather than letting a panic take down the whole process. The
// returned error is only consumed by the errgroup to cancel sibling
// workers' shared context; the coordinator itself always learns of the
// death through the event, not through this return value.
func (c *Coordinator) runSupervisedWorker(ctx context.Context, d workerDeps, id string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s panicked: %v", id, r)
			select {
			case c.reqCh <- coordinatorMsg{kind: msgWorkerDied, args: workerDiedArgs{workerID: id}}:
			case <-ctx.Done():
			case <-c.done:
			}
		}
	}()
	runWorker(ctx, d)
	return nil
}

func (c *Coordinator) doPause(job *jobState) error {
	if job == nil || job.status.IsTerminal() {
		return common.ErrNoActiveJob
	}
	job.status = common.EJobStatus.Paused()
	return nil
}

func (c *Coordinator) doResume(job *jobState) error {
	if job == nil || job.status != common.EJobStatus.Paused() {
		return common.ErrNoActiveJob
	}
	job.status = common.EJobStatus.Running()
	for _, h := range job.workers {
		if _, busy := job.inFlight[h.id]; busy {
			continue
		}
		c.dispatchNext(job, h)
	}
	return nil
}

// doAbort cancels the job context — every worker's blocking AwaitJob call
// or parked sleep returns promptly on ctx cancellation (spec §5
// Cancellation, scenario S5's bounded-delay guarantee) — and marks the job
// Aborted immediately rather than waiting for workers to drain, since
// nothing else observes job.workers again once status is terminal.
func (c *Coordinator) doAbort(job *jobState) error {
	if job == nil || job.status.IsTerminal() {
		return common.ErrNoActiveJob
	}
	if job.cancel != nil {
		job.cancel()
	}
	// Best-effort job/stop against every in-flight async copy (spec §5
	// Cancellation: "the facade SHOULD issue job/stop... completion of
	// that best-effort call is not required for abort to return"), so
	// these run detached from both the now-cancelled job context and
	// abort's own return.
	for _, jobID := range job.moverJobIDs {
		jobID := jobID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), stopJobTimeout)
			defer cancel()
			if err := c.mover.StopJob(ctx, jobID); err != nil {
				c.logger.Log(common.ELogLevel.Warn(), "coordinator", "job/stop failed during abort", map[string]interface{}{"mover_job_id": jobID, "error": err.Error()})
			}
		}()
	}
	job.status = common.EJobStatus.Aborted()
	job.workers = make(map[string]*workerHandle)
	job.moverJobIDs = make(map[string]int64)
	return nil
}

// dispatchNext hands the head of the queue to worker h, if the job is
// running and work remains; otherwise the worker is left idle with no
// command sent (spec §4.3.1 step 9, §4.3.3 "dispatch next").
func (c *Coordinator) dispatchNext(job *jobState, h *workerHandle) {
	if job.status != common.EJobStatus.Running() {
		return
	}
	item, ok := job.queue.dequeue()
	if !ok {
		return
	}
	select {
	case h.cmdCh <- workerCmd{kind: workerCmdWork, item: item}:
		job.inFlight[h.id] = item
	default:
		// worker's buffered slot is full; requeue rather than block the
		// coordinator's single-threaded loop.
		job.queue.enqueueHead(item)
	}
}

// ---- event handlers (spec §4.3.3) --------------------------------------

// onJobStarted records the data mover's async job id for a worker's
// in-flight copy, so abort can issue job/stop against it (spec §5
// Cancellation).
func (c *Coordinator) onJobStarted(job *jobState, a jobStartedArgs) {
	if job == nil {
		return
	}
	job.moverJobIDs[a.workerID] = a.jobID
}

func (c *Coordinator) onCompleted(job *jobState, a completedArgs) {
	if job == nil {
		return
	}
	job.completed = append(job.completed, a.file)
	job.transferredBytes += a.bytes
	delete(job.inFlight, a.workerID)
	delete(job.moverJobIDs, a.workerID)
	if h, ok := job.workers[a.workerID]; ok {
		c.dispatchNext(job, h)
	}
}

func (c *Coordinator) onFailed(job *jobState, a failedArgs) {
	if job == nil {
		return
	}
	delete(job.inFlight, a.workerID)
	delete(job.moverJobIDs, a.workerID)
	attempts := a.item.Attempts + 1
	if attempts < maxAttempts {
		a.item.Attempts = attempts
		job.queue.enqueueHead(a.item)
	} else {
		job.failed = append(job.failed, common.FailedFile{
			File: a.item.File, Reason: a.reason, Attempts: attempts,
		})
	}
	if h, ok := job.workers[a.workerID]; ok {
		c.dispatchNext(job, h)
	}
}

func (c *Coordinator) onQuotaExhausted(job *jobState, a quotaExhaustedArgs) {
	if job == nil {
		return
	}
	h, ok := job.workers[a.workerID]
	if !ok {
		return
	}
	if a.item != nil {
		// This worker could not check out a credential for the item it was
		// handed: requeue at the head and park the worker until the next
		// reset (spec §4.3.3, §8 invariant 2).
		delete(job.inFlight, a.workerID)
		job.queue.enqueueHead(*a.item)
		select {
		case h.cmdCh <- workerCmd{kind: workerCmdParkUntilReset}:
		default:
		}
		return
	}
	// item == nil: the worker's park_until_reset wait elapsed and it is
	// ready again (spec §4.4 step 3).
	c.dispatchNext(job, h)
}

func (c *Coordinator) onWorkerDied(job *jobState, a workerDiedArgs) {
	if job == nil {
		return
	}
	delete(job.workers, a.workerID)
	if item, ok := job.inFlight[a.workerID]; ok {
		delete(job.inFlight, a.workerID)
		if job.opts.RequeueOnWorkerDeath {
			job.queue.enqueueHead(item)
		} else {
			job.failed = append(job.failed, common.FailedFile{
				File: item.File, Reason: "worker died", Attempts: item.Attempts,
			})
		}
	}
	job.warnings = append(job.warnings, fmt.Sprintf("worker %s exited unexpectedly", a.workerID))
}

// checkTerminal promotes a Running job to Completed once nothing is queued
// or in flight (spec §4.3.2 lifecycle, §8 invariant on termination).
func (c *Coordinator) checkTerminal(job *jobState) {
	if job == nil || job.status != common.EJobStatus.Running() {
		return
	}
	if job.isDoneDraining() {
		job.status = common.EJobStatus.Completed()
		if job.cancel != nil {
			job.cancel() // releases every idle worker goroutine parked on cmdCh
		}
		// Every worker has been told to stop (via the cancelled context)
		// and nothing is in flight, so a Completed snapshot should report
		// zero active workers rather than the full spawned count.
		job.workers = make(map[string]*workerHandle)
	}
}

// detectProviderFromFs is a best-effort guess at a filesystem spec's cloud
// provider from its scheme prefix (e.g. "s3:bucket/path"), used only to
// pick a worker-count hint and a quota-warning provider; an unrecognised
// scheme degrades to EProvider.Unknown() rather than failing the job.
func detectProviderFromFs(fs string) common.Provider {
	for i := 0; i < len(fs); i++ {
		if fs[i] == ':' {
			scheme := fs[:i]
			var p common.Provider
			if err := p.Parse(scheme); err == nil {
				return p
			}
			return common.EProvider.Unknown()
		}
	}
	return common.EProvider.Unknown()
}
