package credential

import (
	"time"

	"github.com/wastore/tocmover/common"
)

// nextReset computes the next reset instant for a provider, strictly after
// `now` (spec §4.2, §9 open question 2). Google-flavoured providers reset
// at midnight in a fixed Pacific offset (DST-ignorant by design, matching
// the source's known simplification); everyone else resets at midnight UTC.
func nextReset(provider common.Provider, now time.Time, pacificOffsetHours int) time.Time {
	if provider.IsGoogleFlavoured() {
		loc := time.FixedZone("FixedPacific", pacificOffsetHours*3600)
		local := now.In(loc)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if !midnight.After(local) {
			midnight = midnight.AddDate(0, 0, 1)
		}
		return midnight.UTC()
	}

	utcNow := now.UTC()
	midnight := time.Date(utcNow.Year(), utcNow.Month(), utcNow.Day(), 0, 0, 0, 0, time.UTC)
	if !midnight.After(utcNow) {
		midnight = midnight.AddDate(0, 0, 1)
	}
	return midnight
}
