// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	APIRest    = "rest"
	APIGraphQL = "graphql"
)

// Fetcher looks up the latest commit of a submission repository.
// Errors wrap one of the domain fetch sentinels (ErrNotFound, ErrUnauthorized,
// ErrEmptyRepository, ErrTransientNetwork).
type Fetcher interface {
	LatestCommitTimestamp(ctx context.Context, repositoryID string) (time.Time, error)
}

// Options configures both gateway backends.
type Options struct {
	// Owner is the organization (or user) that owns every submission repository.
	Owner string
	// API selects the backend, APIRest or APIGraphQL.
	API string
	// BaseURL points at a GitHub Enterprise Server host. Empty means github.com.
	BaseURL string
	// Branch pins the branch to read. Empty means the repository's default branch.
	Branch string
	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	// MaxRateLimitSleep caps a single wait on a secondary rate limit.
	MaxRateLimitSleep time.Duration
}

// New builds the backend selected by opts.API.
func New(token string, opts Options, logger *logrus.Logger) (Fetcher, error) {
	httpClient, err := NewHTTPClient(token, opts.MaxRateLimitSleep)
	if err != nil {
		return nil, err
	}
	switch opts.API {
	case APIRest, "":
		return NewGitHubGateway(httpClient, opts, logger)
	case APIGraphQL:
		return NewGraphQLGateway(httpClient, opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown api %q (want %s or %s)", opts.API, APIRest, APIGraphQL)
	}
}

// NewHTTPClient returns an authenticated client that waits out secondary rate limits.
func NewHTTPClient(token string, maxSleep time.Duration) (*http.Client, error) {
	if maxSleep <= 0 {
		maxSleep = time.Minute
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(maxSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// graphqlEndpoint derives the GraphQL URL of an Enterprise host from its base URL.
func graphqlEndpoint(baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	base = strings.TrimSuffix(base, "/api/v3")
	return base + "/api/graphql"
}
