package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/naka-gawa/latedays/internal/config"
	"github.com/naka-gawa/latedays/internal/deadline"
	"github.com/naka-gawa/latedays/internal/domain"
	"github.com/naka-gawa/latedays/internal/gateway"
	"github.com/naka-gawa/latedays/internal/report"
	"github.com/naka-gawa/latedays/internal/roster"
	"github.com/naka-gawa/latedays/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newComputeCmd() *cobra.Command {
	computeCmd := &cobra.Command{
		Use:   "compute <designation> <group_name> <due_date_time> <tolerance_in_mins> <roster.csv> <token_file>",
		Short: "Computes late days for every roster entry and writes them as CSV",
		Long: `Computes late days for every student or group in the roster and writes one
"identity,late_days" line per entry, in roster order.

Single students are identified by username. Groups are identified by their
repository suffix (g<N>), or by each member's username with --expand-groups.`,
		Example: `  latedays compute a1 ece459-1231 "2023-01-27 23:59" 60 students.csv token.git`,
		Args:    cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd.Context(), cmd, args)
		},
	}

	flags := computeCmd.Flags()
	flags.String("api", gateway.APIRest, "GitHub API to query: rest or graphql")
	flags.String("base-url", "", "GitHub Enterprise Server URL (default github.com)")
	flags.String("timezone", deadline.DefaultZone, "IANA time zone the due date is given in")
	flags.String("branch", "", "Branch to read in every repository (default: the repository's default branch)")
	flags.Int("concurrency", 3, "Number of repositories looked up at once")
	flags.Int("max-retries", 3, "Retries after a transient network failure")
	flags.Duration("attempt-timeout", usecase.DefaultOptions().AttemptTimeout, "Timeout of a single lookup")
	flags.StringP("output", "o", "", `Output CSV path, "-" for stdout (default <group>-<designation>-latedays.csv)`)
	flags.String("missing-value", report.DefaultMissingValue, "Value written for entries whose repository could not be read")
	flags.Bool("omit-missing", false, "Leave unresolved entries out of the CSV")
	flags.Bool("expand-groups", false, "Write one line per group member instead of one per group")
	return computeCmd
}

func runCompute(ctx context.Context, cmd *cobra.Command, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	designation, groupName, dueDateTime := args[0], args[1], args[2]
	toleranceArg, rosterPath, tokenPath := args[3], args[4], args[5]

	logger := newLogger(cmd)
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return fail("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return fail("config", err)
	}

	tolerance, err := strconv.Atoi(toleranceArg)
	if err != nil {
		return fail("arguments", fmt.Errorf("tolerance must be a whole number of minutes, got %q", toleranceArg))
	}
	loc, err := cfg.Location()
	if err != nil {
		return fail("deadline", err)
	}
	due, err := deadline.Compute(dueDateTime, tolerance, loc)
	if err != nil {
		return fail("deadline", err)
	}
	logger.WithField("deadline", due.Instant).Info("Effective deadline computed")

	entries, err := roster.ResolveFile(designation, groupName, rosterPath)
	if err != nil {
		return fail("roster", err)
	}

	token, err := config.ReadToken(tokenPath)
	if err != nil {
		return fail("credentials", err)
	}

	// Inject dependencies and run the main business logic.
	fetcher, err := gateway.New(token, gateway.Options{
		Owner:             groupName,
		API:               cfg.API,
		BaseURL:           cfg.BaseURL,
		Branch:            cfg.Branch,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRateLimitSleep: cfg.MaxRateLimitSleep,
	}, logger)
	if err != nil {
		return fail("fetch", fmt.Errorf("failed to create GitHub gateway: %w", err))
	}
	aggregator := usecase.NewAggregator(fetcher, usecase.Options{
		Concurrency:    cfg.Concurrency,
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		AttemptTimeout: cfg.AttemptTimeout,
	}, logger)

	outcomes, err := aggregator.Run(ctx, entries, due)
	if err != nil {
		return fail("fetch", err)
	}

	output := cfg.Output
	if output == "" {
		output = report.DefaultOutputPath(groupName, designation)
	}
	policy := report.Policy{
		MissingValue: cfg.MissingValue,
		OmitMissing:  cfg.OmitMissing,
		ExpandGroups: cfg.ExpandGroups,
	}
	if err := writeOutcomes(cmd.OutOrStdout(), output, outcomes, policy); err != nil {
		return fail("output", err)
	}

	printSummary(cmd.ErrOrStderr(), outcomes, output, logger)
	return nil
}

// writeOutcomes writes the CSV to a temporary file and renames it into place,
// so an interrupted write never leaves a truncated artifact.
func writeOutcomes(stdout io.Writer, output string, outcomes []domain.Outcome, policy report.Policy) error {
	if output == "-" {
		return report.WriteCSV(stdout, outcomes, policy)
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".latedays-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := report.WriteCSV(tmp, outcomes, policy); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}

func printSummary(w io.Writer, outcomes []domain.Outcome, output string, logger *logrus.Logger) {
	summary, err := report.Summarize(outcomes)
	if err != nil {
		logger.WithError(err).Error("Failed to summarize run")
	}
	for _, f := range summary.Failed {
		fmt.Fprintf(w, "unresolved: %s (%s)\n", f.Identity, f.Kind)
	}
	if output != "-" {
		fmt.Fprintf(w, "wrote %s\n", output)
	}
	fmt.Fprintln(w, summary.String())
}
