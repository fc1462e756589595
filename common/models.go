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

package common

import "time"

// FileRecord is what the data mover returns per enumerated entry (spec §3).
type FileRecord struct {
	Path     string    // relative to source root
	Name     string
	Size     int64     // bytes, non-negative
	ModTime  time.Time
	MimeType string    // optional
	IsDir    bool
}

// Action is the classification oracle's verdict for one file (spec §4.1).
type Action struct {
	Kind      ActionKind
	Target    LinkTarget // meaningful only when Kind == Link
	Format    string     // meaningful only when Kind == Convert or Compress
	Priority  Priority
}

// WorkItem wraps a file record queued for transfer (spec §3).
type WorkItem struct {
	File     FileRecord
	Attempts int
}

// FailedFile records the terminal outcome of a work item that exhausted
// retries or otherwise could not be transferred (spec §4.3.3, §7).
type FailedFile struct {
	File     FileRecord
	Reason   string
	Attempts int
}

// JobOptions captures the user-supplied knobs from `parallel start` (spec
// §4.3.1, §6.2). Streaming mode (spec §4.3.1 step 1's "else" branch) is
// permitted but not required for conformance and this repo always
// enumerate-first (see DESIGN.md); there is deliberately no
// EnumerateFirst field here.
type JobOptions struct {
	LargestFirst        bool
	DryRun              bool
	WorkerCount         int // 0 means "auto" (spec §4.3.1 step 7)
	ArchiveMode         bool
	LinkFailurePolicy   LinkFailurePolicy
	RequeueOnWorkerDeath bool
}

// DefaultJobOptions matches the spec's stated defaults (spec §4.3.1).
func DefaultJobOptions() JobOptions {
	return JobOptions{
		LargestFirst:         true,
		DryRun:               false,
		WorkerCount:          0,
		ArchiveMode:          false,
		LinkFailurePolicy:    ELinkFailurePolicy.DemoteToTransfer(),
		RequeueOnWorkerDeath: false,
	}
}

// JobSnapshot is the point-in-time status record (spec §4.3.2).
type JobSnapshot struct {
	JobID             string    `json:"jobId"`
	Status            JobStatus `json:"status"`
	Source            string    `json:"source"`
	Destination       string    `json:"destination"`
	TotalFiles        int       `json:"totalFiles"`
	CompletedCount    int       `json:"completedCount"`
	FailedCount       int       `json:"failedCount"`
	QueuedCount       int       `json:"queuedCount"`
	IgnoredCount      int       `json:"ignoredCount"`
	GhostLinkedCount  int       `json:"ghostLinkedCount"`
	TotalBytes        int64     `json:"totalBytes"`
	TransferredBytes  int64     `json:"transferredBytes"`
	ProgressPercent   float64   `json:"progressPercent"`
	ActiveWorkerCount int       `json:"activeWorkerCount"`
	ElapsedSeconds    float64   `json:"elapsedSeconds"`
	ThroughputMBPS    float64   `json:"throughputMbps"`
	FailedFiles       []FailedFile `json:"failedFiles,omitempty"`
	Warnings          []string  `json:"warnings,omitempty"`
}

// CredentialSnapshot is the read-only view of one credential returned by
// status() and checkout() (spec §4.2).
type CredentialSnapshot struct {
	ID             string    `json:"id"`
	Provider       Provider  `json:"provider"`
	DisplayName    string    `json:"displayName"`
	DailyLimit     int64     `json:"dailyLimit"` // -1 sentinel means unlimited
	BytesUsedToday int64     `json:"bytesUsedToday"`
	Remaining      int64     `json:"remaining"` // -1 sentinel means unlimited
	Utilization    float64   `json:"utilization"`
	LastReset      time.Time `json:"lastReset"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Unlimited is the sentinel used in place of a numeric daily limit (spec §3).
const Unlimited int64 = -1

// PoolStatusSnapshot is the full read-only view returned by the pool's
// status() operation (spec §4.2).
type PoolStatusSnapshot struct {
	Credentials []CredentialSnapshot `json:"credentials"`
}
