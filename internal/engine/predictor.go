package engine

import (
	"fmt"
	"math"

	"github.com/lgmkit/lgmkit/internal/dataset"
	"github.com/lgmkit/lgmkit/internal/expr"
	"github.com/lgmkit/lgmkit/internal/mapper"
	"github.com/lgmkit/lgmkit/internal/model"
	"github.com/lgmkit/lgmkit/internal/state"
)

// Format selects the predictor output shape.
type Format string

const (
	// FormatAuto decides from state 0's result: flat numeric results
	// become a matrix, anything else a list.
	FormatAuto Format = "auto"

	// FormatMatrix accumulates one column per state.
	FormatMatrix Format = "matrix"

	// FormatList keeps one value per state.
	FormatList Format = "list"
)

// ParseFormat validates a format selector.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatAuto, FormatMatrix, FormatList:
		return Format(s), nil
	case "":
		return FormatAuto, nil
	default:
		return "", model.NewConfigurationError(model.ErrCodeBadFormat,
			"unknown format %q: must be auto, matrix or list", s)
	}
}

// Output is a sealed interface over the predictor result variants.
// Only Matrix and List implement it.
type Output interface {
	output() // Sealed - only engine types implement it.
}

// Matrix holds one column per state. All columns share the row count of
// state 0's result.
type Matrix struct {
	NRows   int
	Columns [][]float64
}

func (*Matrix) output() {}

// At returns the element at (row, col), both 0-based.
func (m *Matrix) At(row, col int) float64 {
	return m.Columns[col][row]
}

// List holds one evaluated value per state.
type List struct {
	Items []expr.Value
}

func (*List) output() {}

// Predictor evaluates a user expression once per state.
//
// effects, when non-nil, must hold one precomputed Effects per state; each
// state's effects are rebound into the scope under their plain component
// labels (shadowing same-named data columns) before the expression runs.
//
// The per-state loop is strictly sequential. The format decision under
// FormatAuto is taken once, from state 0's result shape, and governs every
// later state regardless of its actual shape; this is a documented
// limitation, not reconciled per state.
func (e *Evaluator) Predictor(states []state.State, effects []Effects, predictor string, format string) (Output, error) {
	if len(states) == 0 {
		return nil, model.NewConfigurationError(model.ErrCodeEmptyStates,
			"predictor evaluation needs a non-empty state sequence")
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if effects != nil && len(effects) != len(states) {
		return nil, model.NewConfigurationError(model.ErrCodeEmptyStates,
			"effects sequence length %d does not match %d states", len(effects), len(states))
	}

	ast, err := expr.Parse(predictor)
	if err != nil {
		return nil, err
	}

	ec := newEvalContext(e.seed)
	scope := e.predictorScope(states[0], ec)

	e.logger.Debug("predictor evaluation starting",
		"call", ec.call,
		"states", len(states),
		"format", string(f))

	var matrix *Matrix
	var list *List

	for k := range states {
		// The index advance is the one trigger for IID cache invalidation.
		ec.advance(k)
		e.bindState(scope, states[k])
		if effects != nil {
			for label, vec := range effects[k] {
				scope.Set(label, expr.Vector(vec))
			}
		}

		result, err := expr.Evaluate(ast, scope)
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", k, err)
		}

		if k == 0 {
			if f == FormatAuto {
				f = decideFormat(result)
				e.logger.Debug("auto format decided", "call", ec.call, "format", string(f))
			}
			switch f {
			case FormatMatrix:
				matrix = &Matrix{NRows: resultRows(result), Columns: make([][]float64, len(states))}
			case FormatList:
				list = &List{Items: make([]expr.Value, len(states))}
			}
		}

		if matrix != nil {
			col, err := resultColumn(result, matrix.NRows)
			if err != nil {
				return nil, fmt.Errorf("state %d: %w", k, err)
			}
			matrix.Columns[k] = col
		} else {
			list.Items[k] = result
		}
	}

	if matrix != nil {
		return matrix, nil
	}
	return list, nil
}

// predictorScope builds the per-call scope: data bindings, component
// evaluator closures for every included component with a matching entry in
// the first state (state-free components always qualify), and the guard
// against calling a bare unqualified evaluator.
func (e *Evaluator) predictorScope(first state.State, ec *evalContext) *expr.Scope {
	scope := e.dataScope()

	for _, label := range e.labels {
		c, _ := e.model.Components.Get(label)
		if _, ok := first[label]; !ok && !c.Type.StateFree() {
			continue
		}
		scope.Set(label+"_eval", e.componentClosure(c, ec, scope))
	}

	scope.Set("eval", expr.Func{Name: "eval", Call: func(expr.CallCtx) (expr.Value, error) {
		return nil, expr.NewEvaluationError(expr.ErrCodeBadCall,
			"a bare evaluator cannot be called: use the label-qualified form <label>_eval(...)")
	}})
	return scope
}

// bindState rebinds one state's vectors into the scope: component entries
// under "<label>_latent", everything else (hyperparameters such as
// "Precision_for_u") under its own name.
func (e *Evaluator) bindState(scope *expr.Scope, st state.State) {
	for name, vec := range st {
		if _, ok := e.model.Components.Get(name); ok {
			scope.Set(name+"_latent", expr.Vector(vec))
			continue
		}
		scope.Set(name, expr.Vector(vec))
	}
}

// componentClosure builds the "<label>_eval" callable.
//
// Signature: label_eval(main, group, replicate, weights, state). Group and
// replicate default to constant-1 columns the length of main; main itself
// defaults to a constant-1 column the length of the data frame. The active
// state is the "state" argument when given, else the live "<label>_latent"
// binding; offset/const components need neither.
func (e *Evaluator) componentClosure(c model.Component, ec *evalContext, scope *expr.Scope) expr.Func {
	name := c.Label + "_eval"
	return expr.Func{Name: name, Call: func(ctx expr.CallCtx) (expr.Value, error) {
		in, err := e.closureInput(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		vec, err := e.closureState(c, ctx, scope)
		if err != nil {
			return nil, err
		}

		out, err := c.Mapper.Eval(in, vec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if rep, ok := c.Mapper.(mapper.InvalidReporter); ok {
			if err := e.substituteDeviates(c, ec, scope, in, rep.InvalidPositions(in), out); err != nil {
				return nil, err
			}
		}
		return expr.Vector(out), nil
	}}
}

// closureInput assembles the Input structure from call arguments.
func (e *Evaluator) closureInput(ctx expr.CallCtx) (mapper.Input, error) {
	var in mapper.Input

	if v, ok := ctx.Arg(0, "main"); ok {
		col, err := expr.AsColumn(v)
		if err != nil {
			return in, fmt.Errorf("main argument: %w", err)
		}
		in.Main = col
	} else {
		in.Main = dataset.Const(1, e.frame.NRows())
	}
	rows := in.Main.Len()

	col, err := argColumn(ctx, 1, "group", rows)
	if err != nil {
		return in, err
	}
	if col == nil {
		col = dataset.Const(1, rows)
	}
	in.Group = col

	col, err = argColumn(ctx, 2, "replicate", rows)
	if err != nil {
		return in, err
	}
	if col == nil {
		col = dataset.Const(1, rows)
	}
	in.Replicate = col

	if in.Scale, err = argColumn(ctx, 3, "weights", rows); err != nil {
		return in, err
	}
	return in, nil
}

func argColumn(ctx expr.CallCtx, i int, name string, rows int) (dataset.Column, error) {
	v, ok := ctx.Arg(i, name)
	if !ok {
		return nil, nil
	}
	if s, ok := v.(expr.Scalar); ok {
		return dataset.Const(float64(s), rows), nil
	}
	col, err := expr.AsColumn(v)
	if err != nil {
		return nil, fmt.Errorf("%s argument: %w", name, err)
	}
	return col, nil
}

// closureState resolves the latent state for one closure call: the "state"
// override argument when given, else the live "<label>_latent" binding.
// Offset/const components tolerate having neither.
func (e *Evaluator) closureState(c model.Component, ctx expr.CallCtx, scope *expr.Scope) ([]float64, error) {
	if v, ok := ctx.Arg(4, "state"); ok {
		switch val := v.(type) {
		case expr.Scalar:
			return []float64{float64(val)}, nil
		case expr.Vector:
			return val, nil
		default:
			return nil, expr.NewEvaluationError(expr.ErrCodeBadCall,
				"state argument of %s_eval must be numeric", c.Label)
		}
	}

	latent := c.Label + "_latent"
	if v, ok := scope.Get(latent); ok {
		if vec, ok := v.(expr.Vector); ok {
			return vec, nil
		}
	}
	if c.Type.StateFree() {
		return nil, nil
	}
	return nil, &expr.EvaluationError{
		Code:    expr.ErrCodeUnboundName,
		Message: "no latent state bound for component",
		Name:    latent,
	}
}

// substituteDeviates overwrites invalid output positions (main keys outside
// the domain observed during fitting) with cached Normal(0, precision^-0.5)
// deviates. The precision comes from the scope binding
// "Precision_for_<label>"; a missing binding falls back to precision 1.
// Substitution itself never fails.
func (e *Evaluator) substituteDeviates(c model.Component, ec *evalContext, scope *expr.Scope, in mapper.Input, mask []bool, out []float64) error {
	any := false
	for _, m := range mask {
		if m {
			any = true
			break
		}
	}
	if !any {
		return nil
	}

	sd := 1.0
	if v, ok := scope.Get("Precision_for_" + c.Label); ok {
		switch prec := v.(type) {
		case expr.Scalar:
			sd = 1 / math.Sqrt(float64(prec))
		case expr.Vector:
			if len(prec) > 0 {
				sd = 1 / math.Sqrt(prec[0])
			}
		}
	} else {
		e.logger.Warn("no precision bound for component; using unit precision for substituted deviates",
			"call", ec.call,
			"component", c.Label)
	}

	keys, err := mainKeys(in)
	if err != nil {
		return fmt.Errorf("%s_eval: %w", c.Label, err)
	}
	for i, invalid := range mask {
		if !invalid {
			continue
		}
		out[i] = ec.deviate(keys[i], sd)
	}
	return nil
}

// mainKeys stringifies the main column for IID cache lookup.
func mainKeys(in mapper.Input) ([]string, error) {
	switch col := in.Main.(type) {
	case dataset.Factor:
		return col, nil
	case dataset.Numeric:
		keys := make([]string, len(col))
		for i, v := range col {
			keys[i] = fmt.Sprintf("%g", v)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("main input has no keys")
	}
}

// decideFormat implements the auto decision from state 0's result: flat
// numeric results and single-column frames become a matrix.
func decideFormat(v expr.Value) Format {
	switch val := v.(type) {
	case expr.Scalar, expr.Vector:
		return FormatMatrix
	case expr.FrameVal:
		names := val.Frame.Names()
		if len(names) == 1 {
			if _, ok := val.Frame.Column(names[0]).(dataset.Numeric); ok {
				return FormatMatrix
			}
		}
		return FormatList
	default:
		return FormatList
	}
}

// resultRows is the NROW of a state-0 result.
func resultRows(v expr.Value) int {
	switch val := v.(type) {
	case expr.Scalar:
		return 1
	case expr.Vector:
		return len(val)
	case expr.FrameVal:
		return val.Frame.NRows()
	default:
		return 1
	}
}

// resultColumn flattens one state's result into a matrix column of the
// row count fixed by state 0.
func resultColumn(v expr.Value, nrows int) ([]float64, error) {
	switch val := v.(type) {
	case expr.Scalar:
		if nrows != 1 {
			return nil, expr.NewEvaluationError(expr.ErrCodeShape,
				"scalar result cannot fill a %d-row matrix column", nrows)
		}
		return []float64{float64(val)}, nil
	case expr.Vector:
		if len(val) != nrows {
			return nil, expr.NewEvaluationError(expr.ErrCodeShape,
				"result length %d does not match the %d rows fixed by state 0", len(val), nrows)
		}
		col := make([]float64, len(val))
		copy(col, val)
		return col, nil
	case expr.FrameVal:
		names := val.Frame.Names()
		if len(names) == 1 {
			if num, ok := val.Frame.Column(names[0]).(dataset.Numeric); ok && len(num) == nrows {
				col := make([]float64, len(num))
				copy(col, num)
				return col, nil
			}
		}
		return nil, expr.NewEvaluationError(expr.ErrCodeShape,
			"frame result cannot fill a matrix column")
	default:
		return nil, expr.NewEvaluationError(expr.ErrCodeShape,
			"non-numeric result cannot fill a matrix column")
	}
}
