// Package roster parses the course roster and resolves each line to a repository name.
package roster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/naka-gawa/latedays/internal/domain"
)

// ErrorKind identifies why a roster could not be resolved.
type ErrorKind int

const (
	IoFailure ErrorKind = iota
	EmptyLine
	EmptyRoster
	DuplicateRepository
)

// Error is returned for every roster failure. Line is 0 when the failure is not tied to a line.
type Error struct {
	Kind ErrorKind
	Line int
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case IoFailure:
		return fmt.Sprintf("failed to read roster: %v", e.Err)
	case EmptyLine:
		return fmt.Sprintf("roster line %d has no usernames", e.Line)
	case EmptyRoster:
		return "roster has no entries"
	case DuplicateRepository:
		return fmt.Sprintf("roster line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("roster error on line %d: %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a roster Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}

// RepositoryID builds the repository name for one roster line.
// Groups are numbered g{lineIndex+1}, so a group on line 8 resolves to g9.
func RepositoryID(designation, groupName string, lineIndex int, usernames []string) string {
	if len(usernames) == 1 {
		return fmt.Sprintf("%s-%s-%s", groupName, designation, usernames[0])
	}
	return fmt.Sprintf("%s-%s-%s", groupName, designation, groupSuffix(lineIndex))
}

func groupSuffix(lineIndex int) string {
	return fmt.Sprintf("g%d", lineIndex+1)
}

// byteOrderMark is written at the start of rosters exported by some spreadsheet tools.
const byteOrderMark = "\ufeff"

// Resolve reads r line by line and returns the roster entries in file order.
// Blank lines emit nothing but still count towards the line index.
func Resolve(designation, groupName string, r io.Reader) ([]domain.RosterEntry, error) {
	var entries []domain.RosterEntry
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineIndex := 0
	for scanner.Scan() {
		lineIndex++
		line := scanner.Text()
		if lineIndex == 1 {
			line = strings.TrimPrefix(line, byteOrderMark)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		usernames := splitUsernames(line)
		if len(usernames) == 0 {
			return nil, &Error{Kind: EmptyLine, Line: lineIndex}
		}

		repoID := RepositoryID(designation, groupName, lineIndex, usernames)
		if first, ok := seen[repoID]; ok {
			return nil, &Error{
				Kind: DuplicateRepository,
				Line: lineIndex,
				Err:  fmt.Errorf("repository %s already listed on line %d", repoID, first),
			}
		}
		seen[repoID] = lineIndex

		identity := usernames[0]
		if len(usernames) > 1 {
			identity = groupSuffix(lineIndex)
		}
		entries = append(entries, domain.RosterEntry{
			LineIndex:    lineIndex,
			Usernames:    usernames,
			RepositoryID: repoID,
			Identity:     identity,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Kind: IoFailure, Err: err}
	}
	if len(entries) == 0 {
		return nil, &Error{Kind: EmptyRoster}
	}
	return entries, nil
}

// ResolveFile opens path and resolves it with Resolve.
func ResolveFile(designation, groupName, path string) ([]domain.RosterEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: IoFailure, Err: err}
	}
	defer f.Close()
	return Resolve(designation, groupName, f)
}

func splitUsernames(line string) []string {
	var usernames []string
	for _, field := range strings.Split(line, ",") {
		if name := strings.TrimSpace(field); name != "" {
			usernames = append(usernames, name)
		}
	}
	return usernames
}
