package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/latedays/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// GitHubGateway reads the latest commit through the REST API.
type GitHubGateway struct {
	restClient *github.Client
	limiter    *rate.Limiter
	owner      string
	branch     string
	logger     *logrus.Logger
}

// NewGitHubGateway creates a REST gateway on top of httpClient.
func NewGitHubGateway(httpClient *http.Client, opts Options, logger *logrus.Logger) (*GitHubGateway, error) {
	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URL %s: %w", opts.BaseURL, err)
		}
	}
	return &GitHubGateway{
		restClient: client,
		limiter:    newLimiter(opts.RequestsPerSecond),
		owner:      opts.Owner,
		branch:     opts.Branch,
		logger:     logger,
	}, nil
}

// LatestCommitTimestamp returns the committer date of the head commit of the
// repository's default branch, or of the pinned branch when one is configured.
func (g *GitHubGateway) LatestCommitTimestamp(ctx context.Context, repositoryID string) (time.Time, error) {
	log := g.logger.WithField("repository", repositoryID)

	if err := g.wait(ctx, repositoryID); err != nil {
		return time.Time{}, err
	}
	repo, _, err := g.restClient.Repositories.Get(ctx, g.owner, repositoryID)
	if err != nil {
		return time.Time{}, classifyREST(err, repositoryID, domain.KindNotFound)
	}

	branch := repo.GetDefaultBranch()
	if g.branch != "" {
		if branch != "" && branch != g.branch {
			log.WithField("default_branch", branch).Warnf("Repository uses a different default branch than %s", g.branch)
		}
		branch = g.branch
	}
	if branch == "" {
		return time.Time{}, domain.NewFetchError(domain.KindEmptyRepository, repositoryID, nil)
	}
	log.WithField("branch", branch).Debug("Listing head commit")

	if err := g.wait(ctx, repositoryID); err != nil {
		return time.Time{}, err
	}
	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, _, err := g.restClient.Repositories.ListCommits(ctx, g.owner, repositoryID, opts)
	if err != nil {
		// The repository exists, so a 404 here means the branch has no commits.
		return time.Time{}, classifyREST(err, repositoryID, domain.KindEmptyRepository)
	}
	if len(commits) == 0 {
		return time.Time{}, domain.NewFetchError(domain.KindEmptyRepository, repositoryID, nil)
	}

	commit := commits[0].GetCommit()
	ts := commit.GetCommitter().GetDate().Time
	if ts.IsZero() {
		ts = commit.GetAuthor().GetDate().Time
	}
	if ts.IsZero() {
		return time.Time{}, domain.NewFetchError(domain.KindUnknown, repositoryID, fmt.Errorf("commit %s has no date", commits[0].GetSHA()))
	}
	log.WithField("committed_at", ts).Debug("Fetched latest commit")
	return ts, nil
}

func (g *GitHubGateway) wait(ctx context.Context, repositoryID string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return classifyContext(ctx.Err(), repositoryID)
		}
		return domain.NewFetchError(domain.KindTransientNetwork, repositoryID, fmt.Errorf("rate limiter: %w", err))
	}
	return nil
}
