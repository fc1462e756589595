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

// Package credential implements the credential pool (spec §4.2): a
// stateful, single-writer registry of provider credentials with
// per-credential daily-byte meters, quota-aware checkout, and reset
// scheduling.
package credential

import (
	"time"

	"github.com/google/uuid"
	"github.com/wastore/tocmover/common"
)

// safetyMarginFraction is the 5% buffer below the provider's stated daily
// limit that checkout refuses to cross (spec §4.2, "Remaining quota
// calculation").
const safetyMarginFraction = 0.95

// Credential is one authentication handle for one provider account (spec
// §3). Secret is treated as an opaque blob; the pool never interprets it
// beyond provider auto-detection at import time.
type Credential struct {
	ID             string
	Provider       common.Provider
	DisplayName    string
	Secret         []byte
	DailyLimit     int64 // bytes; common.Unlimited sentinel for no cap
	BytesUsedToday int64
	LastReset      time.Time
	CreatedAt      time.Time
}

// Remaining implements spec §4.2's formula:
//
//	remaining = max(0, floor(limit * 0.95) - used)
//
// An unlimited credential always reports common.Unlimited.
func (c Credential) Remaining() int64 {
	if c.DailyLimit == common.Unlimited {
		return common.Unlimited
	}
	cap := int64(float64(c.DailyLimit) * safetyMarginFraction)
	remaining := cap - c.BytesUsedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Utilization returns BytesUsedToday / DailyLimit as a fraction (1 at the
// full stated limit; above 1 if recorded usage passes it); unlimited
// credentials always report 0.
func (c Credential) Utilization() float64 {
	if c.DailyLimit == common.Unlimited || c.DailyLimit == 0 {
		return 0
	}
	return float64(c.BytesUsedToday) / float64(c.DailyLimit)
}

func (c Credential) snapshot() common.CredentialSnapshot {
	return common.CredentialSnapshot{
		ID:             c.ID,
		Provider:       c.Provider,
		DisplayName:    c.DisplayName,
		DailyLimit:     c.DailyLimit,
		BytesUsedToday: c.BytesUsedToday,
		Remaining:      c.Remaining(),
		Utilization:    c.Utilization(),
		LastReset:      c.LastReset,
		CreatedAt:      c.CreatedAt,
	}
}

// newCredentialID assigns `<provider>-<8 hex chars>` as required by spec
// §4.2's add operation, drawing its entropy from a fresh UUID the way the
// rest of the pack mints opaque IDs (google/uuid).
func newCredentialID(provider common.Provider) string {
	u := uuid.New()
	hex := u.String()
	// strip hyphens, take the first 8 hex characters
	compact := make([]byte, 0, 32)
	for _, r := range hex {
		if r != '-' {
			compact = append(compact, byte(r))
		}
	}
	return provider.String() + "-" + string(compact[:8])
}

// defaultDailyLimitBytes holds the default daily upload quota assumed for
// a freshly imported credential of each provider (spec §4.2,
// import_folder: "adds each with default daily limit for that provider").
// These mirror each provider's commonly documented per-account daily
// upload ceiling; operators can override per credential via `add`.
var defaultDailyLimitBytes = map[common.Provider]int64{
	common.EProvider.GDrive():   750 * 1_000_000_000,  // Google's published per-account daily upload cap
	common.EProvider.S3():       common.Unlimited,       // S3 has no native daily byte quota
	common.EProvider.B2():       10 * 1_000_000_000_000, // conservative default for a free-tier-adjacent bucket
	common.EProvider.Dropbox():  common.Unlimited,
	common.EProvider.OneDrive(): 750 * 1_000_000_000,
	common.EProvider.Azure():    common.Unlimited,
	common.EProvider.Unknown():  common.Unlimited,
}

// DefaultDailyLimit returns the default quota assumed for a provider when
// none is specified explicitly.
func DefaultDailyLimit(p common.Provider) int64 {
	if limit, ok := defaultDailyLimitBytes[p]; ok {
		return limit
	}
	return common.Unlimited
}
