package common

import "errors"

// Sentinel errors for the taxonomy in SPEC_FULL.md §7. Components wrap these
// with github.com/pkg/errors.Wrap for context; callers compare with errors.Is.
var (
	// ErrNoCredentials is returned by the pool when no credential is
	// registered for a provider at all.
	ErrNoCredentials = errors.New("tocmover: no credentials registered for provider")

	// ErrQuotaExhausted is returned by the pool when every registered
	// credential for a provider has remaining quota below the request.
	ErrQuotaExhausted = errors.New("tocmover: quota exhausted for provider")

	// ErrNotADirectory is returned by import_folder on a bad path.
	ErrNotADirectory = errors.New("tocmover: not a directory")

	// ErrTransferInProgress is returned by start when a job is already
	// running or paused.
	ErrTransferInProgress = errors.New("tocmover: transfer already in progress")

	// ErrNoActiveJob is returned by pause/resume/abort when there is no
	// job in a state that accepts the requested transition.
	ErrNoActiveJob = errors.New("tocmover: no active job for this operation")

	// ErrEnumerationFailed is returned by start when the data mover's
	// list call fails; status remains idle.
	ErrEnumerationFailed = errors.New("tocmover: enumeration failed")

	// ErrMalformedCredential is returned by the pool's record-usage
	// operation for an unknown credential id. Malformed files met during
	// import_folder are skipped without returning it.
	ErrMalformedCredential = errors.New("tocmover: malformed credential file")
)
