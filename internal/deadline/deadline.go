// Package deadline turns a civil due date and a grace period into an effective deadline.
package deadline

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	// Embedded zone rules keep the deadline independent of the host's tzdata.
	_ "time/tzdata"

	"github.com/naka-gawa/latedays/internal/domain"
)

// Layout is the accepted due date format, "YYYY-MM-DD HH:MM".
const Layout = "2006-01-02 15:04"

// layoutPattern pins every field to its full width. time.Parse alone accepts a one-digit hour.
var layoutPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

// DefaultZone is the zone due dates are read in unless configured otherwise.
const DefaultZone = "America/Toronto"

// ErrorKind identifies why a deadline could not be computed.
type ErrorKind int

const (
	MalformedDate ErrorKind = iota
	AmbiguousLocalTime
	NegativeTolerance
)

type Error struct {
	Kind  ErrorKind
	Input string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case MalformedDate:
		return fmt.Sprintf("malformed due date %q (want YYYY-MM-DD HH:MM): %v", e.Input, e.Err)
	case AmbiguousLocalTime:
		return fmt.Sprintf("due date %q is not a unique local time: %v", e.Input, e.Err)
	case NegativeTolerance:
		return fmt.Sprintf("tolerance must not be negative, got %s", e.Input)
	}
	return fmt.Sprintf("invalid deadline %q: %v", e.Input, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a deadline Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Kind == kind
}

// Compute parses dueDateTime as a civil time in loc and adds toleranceMinutes.
// Civil times skipped or repeated by a DST transition are rejected.
func Compute(dueDateTime string, toleranceMinutes int, loc *time.Location) (domain.EffectiveDeadline, error) {
	if toleranceMinutes < 0 {
		return domain.EffectiveDeadline{}, &Error{Kind: NegativeTolerance, Input: fmt.Sprint(toleranceMinutes)}
	}
	if loc == nil {
		return domain.EffectiveDeadline{}, &Error{Kind: MalformedDate, Input: dueDateTime, Err: errors.New("no time zone given")}
	}

	if !layoutPattern.MatchString(dueDateTime) {
		return domain.EffectiveDeadline{}, &Error{Kind: MalformedDate, Input: dueDateTime, Err: fmt.Errorf("want %q", Layout)}
	}
	civil, err := time.Parse(Layout, dueDateTime)
	if err != nil {
		return domain.EffectiveDeadline{}, &Error{Kind: MalformedDate, Input: dueDateTime, Err: err}
	}

	instant, err := inZone(civil, loc)
	if err != nil {
		return domain.EffectiveDeadline{}, &Error{Kind: AmbiguousLocalTime, Input: dueDateTime, Err: err}
	}

	return domain.EffectiveDeadline{
		Instant: instant.Add(time.Duration(toleranceMinutes) * time.Minute),
	}, nil
}

// inZone maps the wall clock of civil (a UTC time) onto loc. It tries every
// offset loc uses within a day of that wall clock and keeps the instants whose
// local reading matches. Exactly one match is required.
func inZone(civil time.Time, loc *time.Location) (time.Time, error) {
	offsets := make(map[int]struct{})
	for _, shift := range []time.Duration{-24 * time.Hour, -12 * time.Hour, 0, 12 * time.Hour, 24 * time.Hour} {
		_, off := civil.Add(shift).In(loc).Zone()
		offsets[off] = struct{}{}
	}

	var matches []time.Time
	for off := range offsets {
		candidate := civil.Add(-time.Duration(off) * time.Second).In(loc)
		if sameWallClock(candidate, civil) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return time.Time{}, fmt.Errorf("local time does not exist in %s", loc)
	default:
		return time.Time{}, fmt.Errorf("local time occurs twice in %s", loc)
	}
}

func sameWallClock(t, civil time.Time) bool {
	y, mo, d := t.Date()
	cy, cmo, cd := civil.Date()
	return y == cy && mo == cmo && d == cd && t.Hour() == civil.Hour() && t.Minute() == civil.Minute()
}
