package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lgmkit/lgmkit/internal/dataset"
	"github.com/lgmkit/lgmkit/internal/engine"
	"github.com/lgmkit/lgmkit/internal/expr"
	"github.com/lgmkit/lgmkit/internal/model"
	"github.com/lgmkit/lgmkit/internal/state"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	DataPath   string
	ResultPath string
	Predictor  string
	PredFormat string
	Include    []string
	Exclude    []string
	StatesOptions
}

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Effects   []engine.Effects `json:"effects,omitempty"`
	Predictor *PredictorJSON   `json:"predictor,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// PredictorJSON is the serializable form of a predictor output.
type PredictorJSON struct {
	Format  string        `json:"format"`
	NRows   int           `json:"nrows,omitempty"`
	Columns [][]float64   `json:"columns,omitempty"`
	Items   []interface{} `json:"items,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval <model-dir>",
		Short: "Evaluate component effects or a predictor expression",
		Long: `Evaluate a model against a data frame.

States come from a fitted result store (--result with --property/--n/--seed)
or default to the zero-filled fallback state. Without --predictor the command
reports per-component effect contributions; with it, the expression is
evaluated once per state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataPath, "data", "", "data frame YAML file (required)")
	cmd.Flags().StringVar(&opts.ResultPath, "result", "", "fitted result store (sqlite)")
	cmd.Flags().StringVar(&opts.Predictor, "predictor", "", "predictor expression")
	cmd.Flags().StringVar(&opts.PredFormat, "predictor-format", "", "predictor output shape (auto|matrix|list)")
	cmd.Flags().StringSliceVar(&opts.Include, "include", nil, "component labels to include")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "component labels to exclude")
	cmd.Flags().StringVar(&opts.Property, "property", "mean", "summary property or \"sample\"")
	cmd.Flags().IntVarP(&opts.N, "n", "n", 1, "number of states when sampling")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for sampling and IID deviates (0 = non-deterministic)")
	cmd.Flags().BoolVar(&opts.InternalHyper, "internal-hyper", false, "keep hyperparameters on internal scale")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runEval(rootOpts *RootOptions, opts *EvalOptions, modelDir string, cmd *cobra.Command) error {
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

	frame, err := dataset.LoadYAML(opts.DataPath)
	if err != nil {
		_ = formatter.Error(ErrCodeData, err.Error())
		return NewExitError(ExitCommandError, err.Error())
	}
	formatter.VerboseLog("Loaded data frame: %d row(s), columns %v", frame.NRows(), frame.Names())

	states, err := evalStates(loadResult, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeState, err.Error())
		return NewExitError(ExitCommandError, err.Error())
	}

	ev, err := engine.New(loadResult.Model, frame,
		engine.WithInclude(opts.Include),
		engine.WithExclude(opts.Exclude),
		engine.WithLogger(commandLogger(cmd, rootOpts.Verbose)),
		engine.WithSeed(opts.Seed),
	)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	result, err := ev.EvaluateModel(engine.StateSequence(states), opts.Predictor, opts.PredFormat)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	payload := EvalResult{Effects: result.Effects}
	for _, w := range ev.Warnings() {
		payload.Warnings = append(payload.Warnings, fmt.Sprintf("%s: %s", w.Label, w.Message))
	}
	if result.Predictor != nil {
		payload.Predictor, err = predictorJSON(result.Predictor)
		if err != nil {
			return outputEvalError(formatter, err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(payload)
	}
	return outputEvalText(formatter, payload)
}

// evalStates resolves the evaluation states: a result store when given,
// the zero-filled fallback otherwise.
func evalStates(loadResult *LoadResult, opts *EvalOptions) ([]state.State, error) {
	if opts.ResultPath == "" {
		prop := opts.Property
		if prop == "zero" {
			prop = "mean"
		}
		return state.Extract(loadResult.Model, nil, prop, opts.N, opts.Seed, opts.InternalHyper)
	}
	return extractStates(loadResult, opts.ResultPath, &opts.StatesOptions)
}

func outputEvalError(formatter *OutputFormatter, err error) error {
	code := ErrCodeEval
	if model.IsConfiguration(err) {
		code = ErrCodeModel
	}
	_ = formatter.Error(code, err.Error())
	return NewExitError(ExitFailure, err.Error())
}

// predictorJSON flattens the sealed output variants for serialization.
func predictorJSON(out engine.Output) (*PredictorJSON, error) {
	switch o := out.(type) {
	case *engine.Matrix:
		return &PredictorJSON{Format: "matrix", NRows: o.NRows, Columns: o.Columns}, nil
	case *engine.List:
		items := make([]interface{}, len(o.Items))
		for i, v := range o.Items {
			item, err := valueJSON(v)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return &PredictorJSON{Format: "list", Items: items}, nil
	default:
		return nil, fmt.Errorf("unexpected predictor output %T", out)
	}
}

func valueJSON(v expr.Value) (interface{}, error) {
	switch val := v.(type) {
	case expr.Scalar:
		return float64(val), nil
	case expr.Vector:
		return []float64(val), nil
	case expr.Str:
		return string(val), nil
	case expr.Strings:
		return []string(val), nil
	case expr.FrameVal:
		cols := make(map[string]interface{}, len(val.Frame.Names()))
		for _, name := range val.Frame.Names() {
			switch c := val.Frame.Column(name).(type) {
			case dataset.Numeric:
				cols[name] = []float64(c)
			case dataset.Factor:
				cols[name] = []string(c)
			}
		}
		return cols, nil
	default:
		return nil, fmt.Errorf("cannot serialize value %T", v)
	}
}

func outputEvalText(formatter *OutputFormatter, payload EvalResult) error {
	w := formatter.Writer
	for _, warning := range payload.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if payload.Predictor != nil {
		p := payload.Predictor
		if p.Format == "matrix" {
			fmt.Fprintf(w, "predictor: %d row(s) x %d state(s)\n", p.NRows, len(p.Columns))
			for _, col := range p.Columns {
				fmt.Fprintf(w, "  %v\n", col)
			}
			return nil
		}
		fmt.Fprintf(w, "predictor: %d value(s)\n", len(p.Items))
		for _, item := range p.Items {
			fmt.Fprintf(w, "  %v\n", item)
		}
		return nil
	}
	for i, eff := range payload.Effects {
		fmt.Fprintf(w, "state %d:\n", i)
		for _, label := range sortedNames(eff) {
			fmt.Fprintf(w, "  %s: %v\n", label, eff[label])
		}
	}
	return nil
}
