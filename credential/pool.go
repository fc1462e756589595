package credential

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/wastore/tocmover/common"
)

// Pool is the process-wide credential pool agent (spec §4.2). All mutation
// flows through a single goroutine reading requests off reqCh — the
// "single-writer discipline" the spec requires — generalising the actor
// shape the teacher uses for its JobsAdmin/jobMgr pair
// (ste/JobsAdmin.go, ste/mgr-JobMgr.go) down to one small state machine.
type Pool struct {
	reqCh              chan poolRequest
	pacificOffsetHours int
	logger             common.Logger
	done               chan struct{}
}

type poolRequest struct {
	op    string
	reply chan poolReply
	args  interface{}
}

type poolReply struct {
	err   error
	value interface{}
}

// NewPool starts the pool's agent goroutine and returns a handle to it.
// Callers must call Close when done to stop the goroutine.
func NewPool(logger common.Logger, pacificOffsetHours int) *Pool {
	if logger == nil {
		logger = common.NopLogger()
	}
	if pacificOffsetHours == 0 {
		pacificOffsetHours = common.DefaultPacificOffsetHours
	}
	p := &Pool{
		reqCh:              make(chan poolRequest),
		pacificOffsetHours: pacificOffsetHours,
		logger:             logger,
		done:               make(chan struct{}),
	}
	go p.run()
	return p
}

// Close stops the pool's agent goroutine. Safe to call once.
func (p *Pool) Close() { close(p.done) }

func (p *Pool) call(op string, args interface{}) poolReply {
	reply := make(chan poolReply, 1)
	select {
	case p.reqCh <- poolRequest{op: op, reply: reply, args: args}:
	case <-p.done:
		return poolReply{err: errors.New("credential pool closed")}
	}
	select {
	case r := <-reply:
		return r
	case <-p.done:
		return poolReply{err: errors.New("credential pool closed")}
	}
}

// run is the single-threaded state owner: every mutation and every read
// snapshot passes through here, one request at a time, plus an hourly
// reset tick (spec §4.2 Reset).
func (p *Pool) run() {
	state := &poolState{
		byProvider: make(map[common.Provider][]*Credential),
		byID:       make(map[string]*Credential),
		nextReset:  make(map[common.Provider]time.Time),
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			state.applyResetsIfDue(time.Now(), p.pacificOffsetHours)
		case req := <-p.reqCh:
			req.reply <- p.handle(state, req)
		}
	}
}

func (p *Pool) handle(state *poolState, req poolRequest) poolReply {
	switch req.op {
	case opImportFolder:
		return state.importFolder(req.args.(string))
	case opAdd:
		return state.add(req.args.(addArgs))
	case opCheckout:
		a := req.args.(checkoutArgs)
		return state.checkout(a.provider, a.bytesNeeded)
	case opRecordUsage:
		a := req.args.(recordUsageArgs)
		return state.recordUsage(a.id, a.bytes)
	case opStatus:
		return poolReply{value: state.status()}
	case opTotalRemaining:
		return poolReply{value: state.totalRemaining(req.args.(common.Provider))}
	case opTimeUntilReset:
		now := time.Now()
		state.ensureSchedule(req.args.(common.Provider), now, p.pacificOffsetHours)
		return poolReply{value: state.timeUntilReset(req.args.(common.Provider), now)}
	case opRemove:
		return state.remove(req.args.(string))
	case opCredentialCount:
		return poolReply{value: state.credentialCount(req.args.(common.Provider))}
	case opForceReset:
		state.applyResetsIfDue(req.args.(time.Time), p.pacificOffsetHours)
		return poolReply{}
	default:
		return poolReply{err: fmt.Errorf("credential pool: unknown op %q", req.op)}
	}
}

const (
	opImportFolder   = "import_folder"
	opAdd            = "add"
	opCheckout       = "checkout"
	opRecordUsage    = "record_usage"
	opStatus         = "status"
	opTotalRemaining = "total_remaining"
	opTimeUntilReset = "time_until_reset"
	opRemove          = "remove"
	opForceReset      = "force_reset"
	opCredentialCount = "credential_count"
)

type addArgs struct {
	provider    common.Provider
	blob        []byte
	displayName string
	dailyLimit  int64 // common.Unlimited for "use provider default"
}

type checkoutArgs struct {
	provider    common.Provider
	bytesNeeded int64
}

type recordUsageArgs struct {
	id    string
	bytes int64
}

// ---- public API -----------------------------------------------------------

// ImportFolder scans a directory for credential-blob files (one JSON blob
// per file), auto-detects each one's provider, and adds it with that
// provider's default daily limit. Returns the count imported; malformed
// files are skipped and do not fail the call (spec §4.2).
func (p *Pool) ImportFolder(path string) (int, error) {
	r := p.call(opImportFolder, path)
	if r.err != nil {
		return 0, r.err
	}
	return r.value.(int), nil
}

// Add registers one credential and returns its freshly minted ID.
func (p *Pool) Add(provider common.Provider, blob []byte, displayName string, dailyLimit int64) (string, error) {
	r := p.call(opAdd, addArgs{provider: provider, blob: blob, displayName: displayName, dailyLimit: dailyLimit})
	if r.err != nil {
		return "", r.err
	}
	return r.value.(string), nil
}

// Checkout returns the credential with the most remaining quota that still
// satisfies bytesNeeded, or common.ErrNoCredentials / common.ErrQuotaExhausted
// (spec §4.2).
func (p *Pool) Checkout(provider common.Provider, bytesNeeded int64) (common.CredentialSnapshot, error) {
	r := p.call(opCheckout, checkoutArgs{provider: provider, bytesNeeded: bytesNeeded})
	if r.err != nil {
		return common.CredentialSnapshot{}, r.err
	}
	return r.value.(common.CredentialSnapshot), nil
}

// RecordUsage adds bytes to a credential's bytes-used-today meter. Non-blocking
// from the caller's perspective: the pool serialises it internally but does
// not wait on any IO.
func (p *Pool) RecordUsage(id string, bytes int64) error {
	r := p.call(opRecordUsage, recordUsageArgs{id: id, bytes: bytes})
	return r.err
}

// Status returns a full read-only snapshot of every registered credential.
func (p *Pool) Status() common.PoolStatusSnapshot {
	r := p.call(opStatus, nil)
	return r.value.(common.PoolStatusSnapshot)
}

// TotalRemaining sums remaining quota across all credentials for a
// provider; common.Unlimited if any one of them is unlimited.
func (p *Pool) TotalRemaining(provider common.Provider) int64 {
	r := p.call(opTotalRemaining, provider)
	return r.value.(int64)
}

// TimeUntilReset returns non-negative seconds until the provider's next
// scheduled reset.
func (p *Pool) TimeUntilReset(provider common.Provider) time.Duration {
	r := p.call(opTimeUntilReset, provider)
	return r.value.(time.Duration)
}

// Remove deletes a credential by ID.
func (p *Pool) Remove(id string) error {
	r := p.call(opRemove, id)
	return r.err
}

// CredentialCount returns the number of credentials registered for a
// provider, used by the coordinator to size its worker pool (spec
// §4.3.1 step 7).
func (p *Pool) CredentialCount(provider common.Provider) int {
	r := p.call(opCredentialCount, provider)
	return r.value.(int)
}

// ForceReset runs the reset transition as if `at` were the current time;
// exposed for deterministic tests of the §8 reset-idempotence invariant.
func (p *Pool) ForceReset(at time.Time) {
	p.call(opForceReset, at)
}

// ---- folder scanning (pure helper, runs inside the agent) -----------------

func listCredentialFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, common.ErrNotADirectory
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading credential directory")
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
