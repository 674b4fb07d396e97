package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFetchError(t *testing.T) {
	cause := errors.New("GET /repos/x: 404")

	testCases := []struct {
		name    string
		kind    FetchErrorKind
		cause   error
		wantMsg string
	}{
		{name: "not found", kind: KindNotFound, cause: cause, wantMsg: "ece459-1231-a1-bob: repository not found: GET /repos/x: 404"},
		{name: "empty without cause", kind: KindEmptyRepository, wantMsg: "ece459-1231-a1-bob: repository has no commits"},
		{name: "unknown", kind: KindUnknown, cause: cause, wantMsg: "failed to fetch ece459-1231-a1-bob: GET /repos/x: 404"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewFetchError(tc.kind, "ece459-1231-a1-bob", tc.cause)
			require.Error(t, err)
			assert.EqualError(t, err, tc.wantMsg)
			assert.Equal(t, tc.kind, KindOf(err))
			if tc.cause != nil {
				assert.ErrorIs(t, err, tc.cause)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("attempt 2: %w", NewFetchError(KindTransientNetwork, "repo", nil))

	assert.Equal(t, KindTransientNetwork, KindOf(wrapped))
	assert.Equal(t, KindUnauthorized, KindOf(ErrUnauthorized))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestFetchErrorKind_MarshalText(t *testing.T) {
	data, err := json.Marshal(FailedEntry{Identity: "g3", Kind: KindEmptyRepository, Reason: "no commits"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"empty_repository"`)
}
