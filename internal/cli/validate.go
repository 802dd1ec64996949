package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Components []string `json:"components,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model-dir>",
		Short: "Validate a model definition without evaluating it",
		Long: `Validate the CUE model definition in a directory.

Compiles the component list and likelihoods and reports definition errors
with file positions, without touching data or result stores.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, modelDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, err := LoadModelDir(modelDir)
	if err != nil {
		return outputValidateFailure(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, modelDir)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:      true,
			Components: result.Model.Components.Labels(),
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Model valid (%d component(s))\n", result.Model.Components.Len())
	return nil
}

func outputValidateFailure(formatter *OutputFormatter, err error) error {
	loadErr, ok := err.(*LoadError)
	if !ok {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	// Missing or unreadable inputs are command errors; a model definition
	// that fails to compile is a validation failure.
	exitCode := ExitCommandError
	if loadErr.Code == ErrCodeModel || loadErr.Code == ErrCodeBuildFailed {
		exitCode = ExitFailure
	}

	if formatter.Format == "json" {
		_ = formatter.Error(loadErr.Code, loadErr.Error())
		return NewExitError(exitCode, loadErr.Error())
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintf(formatter.Writer, "  %s\n", loadErr.Error())
	return NewExitError(exitCode, loadErr.Error())
}
