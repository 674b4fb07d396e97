package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/naka-gawa/latedays/internal/domain"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// GraphQLGateway reads the latest commit with a single GraphQL query per repository.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	limiter       *rate.Limiter
	owner         string
	branch        string
	logger        *logrus.Logger
}

type commitTarget struct {
	Commit struct {
		Oid           string
		CommittedDate githubv4.DateTime
		AuthoredDate  githubv4.DateTime
	} `graphql:"... on Commit"`
}

// timestamp prefers the committer date and falls back to the author date, as the REST gateway does.
func (t commitTarget) timestamp() time.Time {
	if !t.Commit.CommittedDate.IsZero() {
		return t.Commit.CommittedDate.Time
	}
	return t.Commit.AuthoredDate.Time
}

// defaultBranchQuery reads the head of the default branch.
type defaultBranchQuery struct {
	Repository struct {
		DefaultBranchRef *struct {
			Name   string
			Target commitTarget
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// namedBranchQuery reads the head of a pinned branch.
type namedBranchQuery struct {
	Repository struct {
		DefaultBranchRef *struct {
			Name string
		}
		Ref *struct {
			Name   string
			Target commitTarget
		} `graphql:"ref(qualifiedName: $branch)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGraphQLGateway creates a GraphQL gateway on top of httpClient.
func NewGraphQLGateway(httpClient *http.Client, opts Options, logger *logrus.Logger) *GraphQLGateway {
	client := githubv4.NewClient(httpClient)
	if opts.BaseURL != "" {
		client = githubv4.NewEnterpriseClient(graphqlEndpoint(opts.BaseURL), httpClient)
	}
	return &GraphQLGateway{
		graphqlClient: client,
		limiter:       newLimiter(opts.RequestsPerSecond),
		owner:         opts.Owner,
		branch:        opts.Branch,
		logger:        logger,
	}
}

func (g *GraphQLGateway) LatestCommitTimestamp(ctx context.Context, repositoryID string) (time.Time, error) {
	log := g.logger.WithField("repository", repositoryID)
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return time.Time{}, classifyContext(ctx.Err(), repositoryID)
		}
		return time.Time{}, domain.NewFetchError(domain.KindTransientNetwork, repositoryID, err)
	}

	variables := map[string]interface{}{
		"owner": githubv4.String(g.owner),
		"name":  githubv4.String(repositoryID),
	}

	var branch string
	var target commitTarget
	if g.branch == "" {
		var q defaultBranchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return time.Time{}, classifyGraphQL(err, repositoryID)
		}
		if ref := q.Repository.DefaultBranchRef; ref != nil {
			branch = ref.Name
			target = ref.Target
		}
	} else {
		variables["branch"] = githubv4.String("refs/heads/" + g.branch)
		var q namedBranchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return time.Time{}, classifyGraphQL(err, repositoryID)
		}
		if def := q.Repository.DefaultBranchRef; def != nil && def.Name != g.branch {
			log.WithField("default_branch", def.Name).Warnf("Repository uses a different default branch than %s", g.branch)
		}
		if ref := q.Repository.Ref; ref != nil {
			branch = ref.Name
			target = ref.Target
		}
	}

	// A repository with no commits has a null branch ref.
	if branch == "" {
		return time.Time{}, domain.NewFetchError(domain.KindEmptyRepository, repositoryID, nil)
	}
	committed := target.timestamp()
	if committed.IsZero() {
		return time.Time{}, domain.NewFetchError(domain.KindUnknown, repositoryID, fmt.Errorf("commit %s has no date", target.Commit.Oid))
	}
	log.WithFields(logrus.Fields{"branch": branch, "committed_at": committed}).Debug("Fetched latest commit")
	return committed, nil
}
