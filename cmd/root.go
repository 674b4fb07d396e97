// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// stageError tags a fatal error with the pipeline stage that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

func fail(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "latedays",
		Short: "A CLI tool to compute late days from submission repositories.",
		Long: `latedays reads a course roster, finds each student's or group's submission
repository on GitHub, and converts the time of its latest commit past the
deadline into whole late days. The result is written as a headerless CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default .latedays.yaml)")

	rootCmd.AddCommand(newComputeCmd())
	rootCmd.AddCommand(newResolveCmd())
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs to stderr. Warnings and errors are shown unless verbose is set.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logrus.WarnLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
