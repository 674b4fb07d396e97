// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// RosterEntry is one student or group parsed from the roster file.
// It is created once at parse time and never modified.
type RosterEntry struct {
	// LineIndex is the 1-based line number in the roster file, blank lines included.
	LineIndex int `json:"line_index"`
	// Usernames always has at least one element.
	Usernames []string `json:"usernames"`
	// RepositoryID is the repository name under the course namespace.
	RepositoryID string `json:"repository_id"`
	// Identity is the join key used in the output: the username for a single
	// student, or the group suffix (e.g. "g9") for a multi-member group.
	Identity string `json:"identity"`
}

// IsGroup reports whether the entry has more than one member.
func (e RosterEntry) IsGroup() bool {
	return len(e.Usernames) > 1
}

// EffectiveDeadline is the due date plus the grace tolerance.
type EffectiveDeadline struct {
	Instant time.Time `json:"instant"`
}

// CommitObservation is the outcome of a single remote lookup.
// Err is nil exactly when Timestamp is meaningful.
type CommitObservation struct {
	RepositoryID string    `json:"repository_id"`
	Timestamp    time.Time `json:"timestamp"`
	Err          error     `json:"-"`
}

// LateDayResult is the late-day count for one roster entry.
type LateDayResult struct {
	Identity string `json:"identity"`
	LateDays int    `json:"late_days"`
}

// FailedEntry records a roster entry whose commit timestamp could not be obtained.
type FailedEntry struct {
	Identity string         `json:"identity"`
	Kind     FetchErrorKind `json:"kind"`
	Reason   string         `json:"reason"`
}

// Outcome pairs a roster entry with either a result or a failure.
// Exactly one of Result and Failed is non-nil.
type Outcome struct {
	Entry  RosterEntry    `json:"entry"`
	Result *LateDayResult `json:"result,omitempty"`
	Failed *FailedEntry   `json:"failed,omitempty"`
}

// Succeeded reports whether the outcome carries a LateDayResult.
func (o Outcome) Succeeded() bool {
	return o.Result != nil
}
