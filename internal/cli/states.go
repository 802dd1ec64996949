package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lgmkit/lgmkit/internal/state"
	"github.com/lgmkit/lgmkit/internal/store"
)

// StatesOptions holds flags for the states command.
type StatesOptions struct {
	Property      string
	N             int
	Seed          int64
	InternalHyper bool
}

// StatesResult is the JSON payload of the states command.
type StatesResult struct {
	Property string        `json:"property"`
	Count    int           `json:"count"`
	States   []state.State `json:"states"`
}

// NewStatesCommand creates the states command.
func NewStatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatesOptions{}

	cmd := &cobra.Command{
		Use:   "states <model-dir> <result-db>",
		Short: "Extract evaluation states from a fitted result store",
		Long: `Extract a state sequence from a fitted result store.

A summary property ("mean", "sd", "mode", "quantile-<p>") yields a single
state; "sample" draws n states from the stored posterior draws. Missing
result stores are an error; pass a property of "zero" to emit the
zero-filled fallback state without a store.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStates(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Property, "property", "mean", "summary property or \"sample\"")
	cmd.Flags().IntVarP(&opts.N, "n", "n", 1, "number of states when sampling")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "sampling seed (0 = non-deterministic)")
	cmd.Flags().BoolVar(&opts.InternalHyper, "internal-hyper", false, "keep hyperparameters on internal scale")

	return cmd
}

func runStates(rootOpts *RootOptions, opts *StatesOptions, modelDir, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	loadResult, err := LoadModelDir(modelDir)
	if err != nil {
		return outputValidateFailure(formatter, err)
	}

	states, err := extractStates(loadResult, dbPath, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeState, err.Error())
		return NewExitError(ExitCommandError, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(StatesResult{
			Property: opts.Property,
			Count:    len(states),
			States:   states,
		})
	}

	fmt.Fprintf(formatter.Writer, "%d state(s) for property %q\n", len(states), opts.Property)
	for i, st := range states {
		fmt.Fprintf(formatter.Writer, "state %d:\n", i)
		for _, name := range sortedNames(st) {
			fmt.Fprintf(formatter.Writer, "  %s: %v\n", name, st[name])
		}
	}
	return nil
}

// extractStates resolves the state sequence for a command invocation.
// "zero" skips the store entirely and yields the zero-filled fallback.
func extractStates(loadResult *LoadResult, dbPath string, opts *StatesOptions) ([]state.State, error) {
	if opts.Property == "zero" {
		return state.Extract(loadResult.Model, nil, "mean", 0, 0, opts.InternalHyper)
	}

	result, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}
	defer result.Close()

	return state.Extract(loadResult.Model, result, opts.Property, opts.N, opts.Seed, opts.InternalHyper)
}

func sortedNames(st map[string][]float64) []string {
	names := make([]string, 0, len(st))
	for name := range st {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
