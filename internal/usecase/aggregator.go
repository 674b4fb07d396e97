// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/naka-gawa/latedays/internal/domain"
	"github.com/naka-gawa/latedays/internal/gateway"
	"github.com/naka-gawa/latedays/internal/lateness"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options bounds the concurrency and retry behaviour of a run.
type Options struct {
	// Concurrency is the number of lookups in flight at once.
	Concurrency int
	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int
	// InitialBackoff is the first wait between retries. It doubles each time.
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait between retries.
	MaxBackoff time.Duration
	// AttemptTimeout bounds each individual lookup.
	AttemptTimeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Concurrency:    3,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// Aggregator is the use case for computing late days over a roster.
// It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher gateway.Fetcher
	opts    Options
	logger  *logrus.Logger
}

// NewAggregator creates a new Aggregator instance. Zero option fields fall back to DefaultOptions.
func NewAggregator(fetcher gateway.Fetcher, opts Options, logger *logrus.Logger) *Aggregator {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = def.MaxBackoff
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = def.AttemptTimeout
	}
	return &Aggregator{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
	}
}

// Run looks up every entry and returns one outcome per entry in roster order.
// An Unauthorized failure cancels the remaining lookups and Run returns no outcomes.
func (a *Aggregator) Run(ctx context.Context, entries []domain.RosterEntry, deadline domain.EffectiveDeadline) ([]domain.Outcome, error) {
	a.logger.WithField("entries", len(entries)).Info("Usecase: Starting late day computation...")

	outcomes := make([]domain.Outcome, len(entries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		// Go blocks while the pool is full; stop queueing once the run is cancelled.
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			obs := a.observe(egCtx, entry)
			if obs.Err != nil {
				switch {
				case domain.KindOf(obs.Err) == domain.KindUnauthorized:
					return obs.Err
				case egCtx.Err() != nil:
					return egCtx.Err()
				}
				outcomes[i] = a.failed(entry, obs.Err)
				return nil
			}

			days := lateness.ComputeLateDays(obs.Timestamp, deadline)
			a.logger.WithFields(logrus.Fields{
				"identity":     entry.Identity,
				"committed_at": obs.Timestamp,
				"deadline":     deadline.Instant,
				"late_days":    days,
			}).Debug("Computed late days")
			outcomes[i] = domain.Outcome{
				Entry:  entry,
				Result: &domain.LateDayResult{Identity: entry.Identity, LateDays: days},
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.logger.Info("Usecase: Late day computation complete.")
	return outcomes, nil
}

// observe fetches the commit timestamp for one entry, retrying transient failures.
func (a *Aggregator) observe(ctx context.Context, entry domain.RosterEntry) domain.CommitObservation {
	obs := domain.CommitObservation{RepositoryID: entry.RepositoryID}
	log := a.logger.WithField("repository", entry.RepositoryID)

	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, a.opts.AttemptTimeout)
		defer cancel()

		ts, err := a.fetcher.LatestCommitTimestamp(attemptCtx, entry.RepositoryID)
		if err != nil {
			if ctx.Err() != nil || domain.KindOf(err) != domain.KindTransientNetwork {
				return backoff.Permanent(err)
			}
			return err
		}
		obs.Timestamp = ts
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{"attempt": attempt, "retry_in": wait}).WithError(err).Warn("Transient failure, retrying")
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(a.opts.MaxRetries)), ctx), notify)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		obs.Err = err
	}
	return obs
}

func (a *Aggregator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.opts.InitialBackoff
	b.MaxInterval = a.opts.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	// The retry count is the budget, not elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (a *Aggregator) failed(entry domain.RosterEntry, err error) domain.Outcome {
	kind := domain.KindOf(err)
	a.logger.WithFields(logrus.Fields{
		"identity":   entry.Identity,
		"repository": entry.RepositoryID,
		"kind":       kind.String(),
	}).WithError(err).Warn("Could not determine latest commit")
	return domain.Outcome{
		Entry: entry,
		Failed: &domain.FailedEntry{
			Identity: entry.Identity,
			Kind:     kind,
			Reason:   err.Error(),
		},
	}
}
