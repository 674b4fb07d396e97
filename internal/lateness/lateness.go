// Package lateness converts a commit time into whole late days.
package lateness

import (
	"time"

	"github.com/naka-gawa/latedays/internal/domain"
)

// Day is the length of one late day. It is an elapsed duration, not a calendar day.
const Day = 24 * time.Hour

// ComputeLateDays returns ceil((commit - deadline) / 24h), or 0 when the commit is on time.
func ComputeLateDays(commit time.Time, deadline domain.EffectiveDeadline) int {
	delta := commit.Sub(deadline.Instant)
	if delta <= 0 {
		return 0
	}
	days := delta / Day
	if delta%Day != 0 {
		days++
	}
	return int(days)
}
