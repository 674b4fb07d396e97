package domain

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a repository lookup failed.
type FetchErrorKind int

const (
	KindUnknown FetchErrorKind = iota
	KindNotFound
	KindEmptyRepository
	KindUnauthorized
	KindTransientNetwork
)

var (
	ErrNotFound         = errors.New("repository not found")
	ErrEmptyRepository  = errors.New("repository has no commits")
	ErrUnauthorized     = errors.New("credential rejected")
	ErrTransientNetwork = errors.New("transient network failure")
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindEmptyRepository:
		return "empty_repository"
	case KindUnauthorized:
		return "unauthorized"
	case KindTransientNetwork:
		return "transient_network"
	default:
		return "unknown"
	}
}

// MarshalText lets the kind appear by name in JSON and logs.
func (k FetchErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf returns the fetch error kind wrapped by err.
func KindOf(err error) FetchErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptyRepository):
		return KindEmptyRepository
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrTransientNetwork):
		return KindTransientNetwork
	default:
		return KindUnknown
	}
}

// NewFetchError wraps cause with the sentinel for kind, keeping both in the chain.
func NewFetchError(kind FetchErrorKind, repositoryID string, cause error) error {
	var sentinel error
	switch kind {
	case KindNotFound:
		sentinel = ErrNotFound
	case KindEmptyRepository:
		sentinel = ErrEmptyRepository
	case KindUnauthorized:
		sentinel = ErrUnauthorized
	case KindTransientNetwork:
		sentinel = ErrTransientNetwork
	default:
		if cause == nil {
			return fmt.Errorf("failed to fetch %s", repositoryID)
		}
		return fmt.Errorf("failed to fetch %s: %w", repositoryID, cause)
	}
	if cause == nil {
		return fmt.Errorf("%s: %w", repositoryID, sentinel)
	}
	return fmt.Errorf("%s: %w: %w", repositoryID, sentinel, cause)
}
