// Package report writes aggregated late days in the CSV format the grade import expects.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/naka-gawa/latedays/internal/domain"
)

// DefaultMissingValue is written in place of a late-day count for entries that could not be resolved.
const DefaultMissingValue = "MISSING"

// Policy controls how outcomes become CSV lines.
type Policy struct {
	// MissingValue replaces the count for failed entries.
	MissingValue string
	// OmitMissing drops failed entries from the file instead.
	OmitMissing bool
	// ExpandGroups writes one line per group member, keyed by username.
	ExpandGroups bool
}

// DefaultOutputPath is the file name used when no output is configured.
func DefaultOutputPath(groupName, designation string) string {
	return fmt.Sprintf("%s-%s-latedays.csv", groupName, designation)
}

// WriteCSV writes one headerless "identity,lateDays" line per outcome, in order.
func WriteCSV(w io.Writer, outcomes []domain.Outcome, policy Policy) error {
	missing := policy.MissingValue
	if missing == "" {
		missing = DefaultMissingValue
	}

	cw := csv.NewWriter(w)
	for _, o := range outcomes {
		var value string
		switch {
		case o.Result != nil:
			value = strconv.Itoa(o.Result.LateDays)
		case policy.OmitMissing:
			continue
		default:
			value = missing
		}

		for _, identity := range identities(o, policy.ExpandGroups) {
			if err := cw.Write([]string{identity, value}); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", identity, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteRoster writes "identity,repositoryID" for every entry without touching the network.
func WriteRoster(w io.Writer, entries []domain.RosterEntry) error {
	cw := csv.NewWriter(w)
	for _, e := range entries {
		if err := cw.Write([]string{e.Identity, e.RepositoryID}); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", e.Identity, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func identities(o domain.Outcome, expand bool) []string {
	if expand && o.Entry.IsGroup() {
		return o.Entry.Usernames
	}
	if o.Result != nil {
		return []string{o.Result.Identity}
	}
	return []string{o.Failed.Identity}
}
