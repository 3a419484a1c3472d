package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SpareCarry/sparecarry-sub004/internal/harness"
	"github.com/SpareCarry/sparecarry-sub004/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Scenario string                 `json:"scenario,omitempty"`
	Tables   []string               `json:"tables,omitempty"` // tables with a schema
	Warnings []harness.StepWarnings `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario without running it",
		Long: `Validate a fixture scenario without executing it.

Parses the scenario strictly, compiles its CUE schema if one is named and
builds every step, reporting query warnings such as unevaluated or filters,
unfiltered update/delete and range combined with limit.

Exit codes:
  0 - Scenario is valid and has no warnings
  1 - One or more steps carry warnings
  2 - Scenario or schema could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeScenarioInvalid, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded scenario %s with %d step(s)", scenario.Name, len(scenario.Steps))

	result := ValidationResult{Valid: true, Scenario: scenario.Name}

	if scenario.Schema != "" {
		reg, err := schema.Load(scenario.Schema)
		if err != nil {
			return outputValidateError(formatter, ErrCodeSchemaInvalid, err.Error(), map[string]string{"schema": scenario.Schema})
		}
		result.Tables = reg.Tables()
		formatter.VerboseLog("Compiled schema %s: tables %v", scenario.Schema, result.Tables)
	}

	warnings, err := harness.Lint(scenario)
	if err != nil {
		return outputValidateError(formatter, ErrCodeScenarioInvalid, err.Error(), nil)
	}

	if len(warnings) > 0 {
		result.Valid = false
		result.Warnings = warnings
		return outputValidationWarnings(formatter, result)
	}

	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Scenario %s valid\n", result.Scenario)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load failures are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationWarnings outputs step warnings.
func outputValidationWarnings(formatter *OutputFormatter, result ValidationResult) error {
	count := 0
	for _, w := range result.Warnings {
		count += len(w.Warnings)
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeQueryWarning,
				Message: result.Warnings[0].Warnings[0],
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation found %d warning(s)", count))
	}

	fmt.Fprintf(formatter.Writer, "✗ Scenario %s has warnings\n", result.Scenario)
	fmt.Fprintln(formatter.Writer)

	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "step %d: %s\n", w.Step, w.Request)
		for _, msg := range w.Warnings {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeQueryWarning, msg)
		}
		fmt.Fprintln(formatter.Writer)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation found %d warning(s)", count))
}
