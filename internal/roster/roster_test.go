package roster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/naka-gawa/latedays/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name        string
		designation string
		groupName   string
		input       string
		expected    []domain.RosterEntry
		expectKind  ErrorKind
		expectLine  int
		expectError bool
	}{
		{
			name:        "single student",
			designation: "a1",
			groupName:   "ece459-1231",
			input:       "jzarnett\n",
			expected: []domain.RosterEntry{
				{LineIndex: 1, Usernames: []string{"jzarnett"}, RepositoryID: "ece459-1231-a1-jzarnett", Identity: "jzarnett"},
			},
		},
		{
			name:        "group on line 8 uses the g9 suffix",
			designation: "proj",
			groupName:   "ece459-1231",
			input:       "s1\ns2\ns3\ns4\ns5\ns6\ns7\nalice,bob\n",
			expected: []domain.RosterEntry{
				{LineIndex: 1, Usernames: []string{"s1"}, RepositoryID: "ece459-1231-proj-s1", Identity: "s1"},
				{LineIndex: 2, Usernames: []string{"s2"}, RepositoryID: "ece459-1231-proj-s2", Identity: "s2"},
				{LineIndex: 3, Usernames: []string{"s3"}, RepositoryID: "ece459-1231-proj-s3", Identity: "s3"},
				{LineIndex: 4, Usernames: []string{"s4"}, RepositoryID: "ece459-1231-proj-s4", Identity: "s4"},
				{LineIndex: 5, Usernames: []string{"s5"}, RepositoryID: "ece459-1231-proj-s5", Identity: "s5"},
				{LineIndex: 6, Usernames: []string{"s6"}, RepositoryID: "ece459-1231-proj-s6", Identity: "s6"},
				{LineIndex: 7, Usernames: []string{"s7"}, RepositoryID: "ece459-1231-proj-s7", Identity: "s7"},
				{LineIndex: 8, Usernames: []string{"alice", "bob"}, RepositoryID: "ece459-1231-proj-g9", Identity: "g9"},
			},
		},
		{
			name:        "blank lines consume a line slot",
			designation: "proj",
			groupName:   "ece459-1231",
			input:       "alice,bob\n\n   \ncarol , dave,\n",
			expected: []domain.RosterEntry{
				{LineIndex: 1, Usernames: []string{"alice", "bob"}, RepositoryID: "ece459-1231-proj-g2", Identity: "g2"},
				{LineIndex: 4, Usernames: []string{"carol", "dave"}, RepositoryID: "ece459-1231-proj-g5", Identity: "g5"},
			},
		},
		{
			name:        "whitespace and CRLF are trimmed",
			designation: "a2",
			groupName:   "ece459-1231",
			input:       "  jzarnett \r\n",
			expected: []domain.RosterEntry{
				{LineIndex: 1, Usernames: []string{"jzarnett"}, RepositoryID: "ece459-1231-a2-jzarnett", Identity: "jzarnett"},
			},
		},
		{
			name:        "leading byte order mark is dropped",
			designation: "a1",
			groupName:   "ece459-1231",
			input:       "\ufeffjzarnett\nalice,bob\n",
			expected: []domain.RosterEntry{
				{LineIndex: 1, Usernames: []string{"jzarnett"}, RepositoryID: "ece459-1231-a1-jzarnett", Identity: "jzarnett"},
				{LineIndex: 2, Usernames: []string{"alice", "bob"}, RepositoryID: "ece459-1231-a1-g3", Identity: "g3"},
			},
		},
		{
			name:        "line with only separators",
			designation: "a1",
			groupName:   "ece459-1231",
			input:       "alice\n , ,\n",
			expectError: true,
			expectKind:  EmptyLine,
			expectLine:  2,
		},
		{
			name:        "empty roster",
			designation: "a1",
			groupName:   "ece459-1231",
			input:       "\n\n",
			expectError: true,
			expectKind:  EmptyRoster,
		},
		{
			name:        "duplicate student",
			designation: "a1",
			groupName:   "ece459-1231",
			input:       "alice\nbob\nalice\n",
			expectError: true,
			expectKind:  DuplicateRepository,
			expectLine:  3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := Resolve(tc.designation, tc.groupName, strings.NewReader(tc.input))
			if tc.expectError {
				require.Error(t, err)
				assert.True(t, IsKind(err, tc.expectKind), "unexpected error: %v", err)
				var rerr *Error
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, tc.expectLine, rerr.Line)
				assert.Nil(t, entries)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, entries)
		})
	}
}

func TestResolve_ReadFailure(t *testing.T) {
	_, err := Resolve("a1", "ece459-1231", failingReader{})
	require.Error(t, err)
	assert.True(t, IsKind(err, IoFailure))
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "students.csv")
	require.NoError(t, os.WriteFile(path, []byte("jzarnett\nalice,bob\n"), 0o600))

	entries, err := ResolveFile("a1", "ece459-1231", path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ece459-1231-a1-jzarnett", entries[0].RepositoryID)
	assert.Equal(t, "ece459-1231-a1-g3", entries[1].RepositoryID)

	_, err = ResolveFile("a1", "ece459-1231", filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, IsKind(err, IoFailure))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRepositoryID(t *testing.T) {
	assert.Equal(t, "ece459-1231-a1-jzarnett", RepositoryID("a1", "ece459-1231", 1, []string{"jzarnett"}))
	assert.Equal(t, "ece459-1231-proj-g9", RepositoryID("proj", "ece459-1231", 8, []string{"alice", "bob"}))
}
