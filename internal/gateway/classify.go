package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/latedays/internal/domain"
)

// classifyREST maps a go-github error onto a fetch error kind. notFound is the
// kind reported for a 404, which differs between repository and branch lookups.
func classifyREST(err error, repositoryID string, notFound domain.FetchErrorKind) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	case errors.As(err, &respErr) && respErr.Response != nil:
		return domain.NewFetchError(kindForStatus(respErr.Response.StatusCode, notFound), repositoryID, err)
	}
	return classifyTransport(err, repositoryID)
}

func kindForStatus(status int, notFound domain.FetchErrorKind) domain.FetchErrorKind {
	switch {
	case status == http.StatusNotFound:
		return notFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.KindUnauthorized
	case status == http.StatusConflict:
		// GitHub answers 409 "Git Repository is empty." when listing commits.
		return domain.KindEmptyRepository
	case status == http.StatusTooManyRequests, status >= 500:
		return domain.KindTransientNetwork
	default:
		return domain.KindUnknown
	}
}

// classifyGraphQL maps a githubv4 error onto a fetch error kind. The client only
// exposes failures as text, so the status line and GitHub's messages are matched.
func classifyGraphQL(err error, repositoryID string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return classifyContext(err, repositoryID)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "Could not resolve to a Repository"):
		return domain.NewFetchError(domain.KindNotFound, repositoryID, err)
	case strings.Contains(lower, "rate limit"):
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	case strings.Contains(msg, "status code: 401"), strings.Contains(msg, "status code: 403"):
		return domain.NewFetchError(domain.KindUnauthorized, repositoryID, err)
	case strings.Contains(msg, "status code: 429"), strings.Contains(msg, "status code: 5"):
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	}
	return domain.NewFetchError(domain.KindUnknown, repositoryID, err)
}

func classifyTransport(err error, repositoryID string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return classifyContext(err, repositoryID)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	}
	return domain.NewFetchError(domain.KindUnknown, repositoryID, err)
}

// classifyContext treats an expired attempt as transient. Cancellation is
// passed through so the caller can tell it apart from a fetch failure.
func classifyContext(err error, repositoryID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	}
	return err
}
