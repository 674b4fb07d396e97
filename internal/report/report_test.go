package report

import (
	"bytes"
	"testing"

	"github.com/naka-gawa/latedays/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutcomes() []domain.Outcome {
	alice := domain.RosterEntry{LineIndex: 1, Usernames: []string{"alice"}, RepositoryID: "c-a1-alice", Identity: "alice"}
	group := domain.RosterEntry{LineIndex: 2, Usernames: []string{"bob", "carol"}, RepositoryID: "c-a1-g3", Identity: "g3"}
	dave := domain.RosterEntry{LineIndex: 3, Usernames: []string{"dave"}, RepositoryID: "c-a1-dave", Identity: "dave"}
	erin := domain.RosterEntry{LineIndex: 4, Usernames: []string{"erin"}, RepositoryID: "c-a1-erin", Identity: "erin"}
	return []domain.Outcome{
		{Entry: alice, Result: &domain.LateDayResult{Identity: "alice", LateDays: 0}},
		{Entry: group, Result: &domain.LateDayResult{Identity: "g3", LateDays: 2}},
		{Entry: dave, Failed: &domain.FailedEntry{Identity: "dave", Kind: domain.KindNotFound, Reason: "c-a1-dave: repository not found"}},
		{Entry: erin, Result: &domain.LateDayResult{Identity: "erin", LateDays: 4}},
	}
}

func TestWriteCSV(t *testing.T) {
	testCases := []struct {
		name     string
		policy   Policy
		expected string
	}{
		{
			name:     "default sentinel",
			policy:   Policy{},
			expected: "alice,0\ng3,2\ndave,MISSING\nerin,4\n",
		},
		{
			name:     "custom sentinel",
			policy:   Policy{MissingValue: "-1"},
			expected: "alice,0\ng3,2\ndave,-1\nerin,4\n",
		},
		{
			name:     "omit missing",
			policy:   Policy{OmitMissing: true},
			expected: "alice,0\ng3,2\nerin,4\n",
		},
		{
			name:     "expand groups",
			policy:   Policy{ExpandGroups: true},
			expected: "alice,0\nbob,2\ncarol,2\ndave,MISSING\nerin,4\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, sampleOutcomes(), tc.policy))
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestWriteCSV_ByteIdenticalAcrossRuns(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, WriteCSV(&first, sampleOutcomes(), Policy{}))
	require.NoError(t, WriteCSV(&second, sampleOutcomes(), Policy{}))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteRoster(t *testing.T) {
	var buf bytes.Buffer
	entries := []domain.RosterEntry{
		{LineIndex: 1, Usernames: []string{"jzarnett"}, RepositoryID: "ece459-1231-a1-jzarnett", Identity: "jzarnett"},
		{LineIndex: 8, Usernames: []string{"alice", "bob"}, RepositoryID: "ece459-1231-a1-g9", Identity: "g9"},
	}
	require.NoError(t, WriteRoster(&buf, entries))
	assert.Equal(t, "jzarnett,ece459-1231-a1-jzarnett\ng9,ece459-1231-a1-g9\n", buf.String())
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "ece459-1231-a1-latedays.csv", DefaultOutputPath("ece459-1231", "a1"))
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(sampleOutcomes())
	require.NoError(t, err)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.OnTime)
	assert.Equal(t, 2, s.Late)
	require.Len(t, s.Failed, 1)
	assert.Equal(t, "dave", s.Failed[0].Identity)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.Median, 1e-9)
	assert.Equal(t, 4, s.MaxDays)
	assert.Equal(t, 6, s.TotalDays)
	assert.Contains(t, s.String(), "1 unresolved")
}

func TestSummarize_AllFailed(t *testing.T) {
	outcomes := []domain.Outcome{
		{Failed: &domain.FailedEntry{Identity: "dave", Kind: domain.KindNotFound}},
	}
	s, err := Summarize(outcomes)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Total)
	assert.Zero(t, s.Mean)
	assert.Len(t, s.Failed, 1)
}
