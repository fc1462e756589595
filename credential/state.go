package credential

import (
	"encoding/json"
	"os"
	"time"

	"github.com/wastore/tocmover/common"
)

// poolState is the actual mutable registry, only ever touched from the
// pool's single agent goroutine (spec §4.2 "single-writer discipline").
type poolState struct {
	byProvider map[common.Provider][]*Credential
	byID       map[string]*Credential
	nextReset  map[common.Provider]time.Time
}

func (s *poolState) ensureSchedule(provider common.Provider, now time.Time, pacificOffsetHours int) {
	if _, ok := s.nextReset[provider]; !ok {
		s.nextReset[provider] = nextReset(provider, now, pacificOffsetHours)
	}
}

func (s *poolState) importFolder(dir string) poolReply {
	files, err := listCredentialFiles(dir)
	if err != nil {
		return poolReply{err: err}
	}
	count := 0
	for _, f := range files {
		blob, err := os.ReadFile(f)
		if err != nil || !json.Valid(blob) {
			continue // malformed/unreadable file: skipped, count-only effect
		}
		provider := detectProvider(blob)
		s.insert(provider, blob, "", common.Unlimited)
		count++
	}
	return poolReply{value: count}
}

func (s *poolState) add(a addArgs) poolReply {
	id := s.insert(a.provider, a.blob, a.displayName, a.dailyLimit)
	return poolReply{value: id}
}

func (s *poolState) insert(provider common.Provider, blob []byte, displayName string, dailyLimit int64) string {
	if dailyLimit == 0 || dailyLimit == common.Unlimited {
		dailyLimit = DefaultDailyLimit(provider)
	}
	id := newCredentialID(provider)
	now := time.Now()
	c := &Credential{
		ID:          id,
		Provider:    provider,
		DisplayName: displayName,
		Secret:      blob,
		DailyLimit:  dailyLimit,
		LastReset:   now,
		CreatedAt:   now,
	}
	s.byProvider[provider] = append(s.byProvider[provider], c)
	s.byID[id] = c
	return id
}

func (s *poolState) checkout(provider common.Provider, bytesNeeded int64) poolReply {
	creds := s.byProvider[provider]
	if len(creds) == 0 {
		return poolReply{err: common.ErrNoCredentials}
	}

	var best *Credential
	var bestRemaining int64 = -2 // sentinel lower than any real remaining or Unlimited
	for _, c := range creds {
		remaining := c.Remaining()
		if remaining != common.Unlimited && remaining < bytesNeeded {
			continue
		}
		if best == nil {
			best, bestRemaining = c, remaining
			continue
		}
		// Ties broken arbitrarily (spec §4.2); prefer strictly more
		// remaining, treating Unlimited as the maximum.
		if remaining == common.Unlimited && bestRemaining != common.Unlimited {
			best, bestRemaining = c, remaining
		} else if remaining != common.Unlimited && bestRemaining != common.Unlimited && remaining > bestRemaining {
			best, bestRemaining = c, remaining
		}
	}
	if best == nil {
		return poolReply{err: common.ErrQuotaExhausted}
	}
	snap := best.snapshot()
	return poolReply{value: snap}
}

func (s *poolState) recordUsage(id string, bytes int64) poolReply {
	c, ok := s.byID[id]
	if !ok {
		return poolReply{err: common.ErrMalformedCredential}
	}
	c.BytesUsedToday += bytes
	return poolReply{}
}

func (s *poolState) status() common.PoolStatusSnapshot {
	var snap common.PoolStatusSnapshot
	for _, c := range s.byID {
		snap.Credentials = append(snap.Credentials, c.snapshot())
	}
	return snap
}

func (s *poolState) totalRemaining(provider common.Provider) int64 {
	var total int64
	for _, c := range s.byProvider[provider] {
		r := c.Remaining()
		if r == common.Unlimited {
			return common.Unlimited
		}
		total += r
	}
	return total
}

func (s *poolState) timeUntilReset(provider common.Provider, now time.Time) time.Duration {
	next, ok := s.nextReset[provider]
	if !ok {
		return 0
	}
	d := next.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (s *poolState) credentialCount(provider common.Provider) int {
	return len(s.byProvider[provider])
}

func (s *poolState) remove(id string) poolReply {
	c, ok := s.byID[id]
	if !ok {
		return poolReply{}
	}
	delete(s.byID, id)
	list := s.byProvider[c.Provider]
	for i, cc := range list {
		if cc.ID == id {
			s.byProvider[c.Provider] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return poolReply{}
}

// applyResetsIfDue runs the hourly reset tick (spec §4.2 Reset): for every
// provider whose scheduled instant has passed, zero every credential's
// bytes-used-today and advance last-reset, then recompute the next reset.
// Idempotent within the same tick: calling it twice with no elapsed time
// change is a no-op the second time because schedules already point to the
// future (spec §8 invariant 6).
func (s *poolState) applyResetsIfDue(now time.Time, pacificOffsetHours int) {
	for provider, creds := range s.byProvider {
		if _, ok := s.nextReset[provider]; !ok {
			// First check for this provider: schedule from the oldest
			// last-reset instant, so usage recorded before a midnight that
			// has already passed is reset now.
			base := now
			for _, c := range creds {
				if c.LastReset.Before(base) {
					base = c.LastReset
				}
			}
			s.nextReset[provider] = nextReset(provider, base, pacificOffsetHours)
		}
		if !now.Before(s.nextReset[provider]) {
			for _, c := range s.byProvider[provider] {
				c.BytesUsedToday = 0
				c.LastReset = now
			}
			s.nextReset[provider] = nextReset(provider, now, pacificOffsetHours)
		}
	}
}
