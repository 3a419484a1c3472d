package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SpareCarry/sparecarry-sub004/internal/harness"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	DB string // output SQLite path
}

// SnapshotResult describes a written snapshot.
type SnapshotResult struct {
	Scenario string         `json:"scenario"`
	DB       string         `json:"db"`
	Tables   map[string]int `json:"tables"` // row count per table
	Pass     bool           `json:"pass"`
	Errors   []string       `json:"errors,omitempty"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <scenario.yaml>",
		Short: "Run a scenario and save its tables to SQLite",
		Long: `Run a fixture scenario and write the resulting tables into a SQLite
snapshot. The snapshot can seed other scenarios through seed_db.

The snapshot is written even when expectations or assertions fail; the
command then exits 1.

Examples:
  mockbase snapshot --db fixtures.db ./scenarios/open_trips.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "output SQLite file (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario not found: %s", path))
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeScenarioInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid scenario", err)
	}

	result, c, err := harness.Execute(cmd.Context(), scenario, slog.Default())
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "execution failed", err)
	}

	if err := c.Store().SaveSnapshot(cmd.Context(), opts.DB); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), map[string]string{"db": opts.DB})
		return WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}
	formatter.VerboseLog("Wrote snapshot %s", opts.DB)

	out := SnapshotResult{
		Scenario: scenario.Name,
		DB:       opts.DB,
		Tables:   make(map[string]int, len(result.State)),
		Pass:     result.Pass,
		Errors:   result.Errors,
	}
	for table, rows := range result.State {
		out.Tables[table] = len(rows)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		fmt.Fprintf(w, "Wrote %s from scenario %s\n", opts.DB, scenario.Name)
		for _, table := range c.Store().Tables() {
			fmt.Fprintf(w, "  %s: %d row(s)\n", table, out.Tables[table])
		}
		for _, e := range result.Errors {
			fmt.Fprintf(w, "✗ %s\n", e)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}
