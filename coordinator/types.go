// Copyright (c) 2026 tocmover contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.

// Package coordinator implements the single-job transfer coordinator (C4,
// spec §4.3) and its worker loop (C5, spec §4.4): enumerate, classify,
// largest-first schedule, fan out to per-credential workers, retry with
// backoff, quota-aware rotation, pause/resume/abort, completion
// accounting.
package coordinator

import (
	"context"
	"time"

	"github.com/wastore/tocmover/common"
	"github.com/wastore/tocmover/mover"
)

// MoverClient is the subset of mover.Client the coordinator and its
// workers depend on, extracted as an interface so tests can substitute a
// fake data mover (spec §4.5's facade is explicitly out of scope here;
// only its contract matters).
type MoverClient interface {
	List(ctx context.Context, fs string, path string, recursive bool) ([]mover.ListEntry, error)
	CopyFile(ctx context.Context, opts mover.CopyFileOptions) (int64, error)
	AwaitJob(ctx context.Context, jobID int64, onProgress mover.ProgressFunc) error
	PublicLink(ctx context.Context, fs, remote string) (string, error)
	StopJob(ctx context.Context, jobID int64) error
}

// stopJobTimeout bounds the best-effort job/stop call abort fires at every
// in-flight async copy (spec §5 Cancellation); it runs detached from
// abort's own return, so this only guards against a hung data mover.
const stopJobTimeout = 10 * time.Second

// CredentialPool is the subset of *credential.Pool the coordinator and
// its workers depend on.
type CredentialPool interface {
	Checkout(provider common.Provider, bytesNeeded int64) (common.CredentialSnapshot, error)
	RecordUsage(id string, bytes int64) error
	TotalRemaining(provider common.Provider) int64
	TimeUntilReset(provider common.Provider) time.Duration
	CredentialCount(provider common.Provider) int
}

// retryBackoff is the exponential backoff table applied before every
// attempt beyond the first (spec §4.3.4): 1s before the 2nd attempt, 5s
// before the 3rd. A 3rd entry is kept for configurability even though the
// 3-attempt cap (spec §8 scenario S6) never reaches it.
var retryBackoff = []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second}

const maxAttempts = 3
