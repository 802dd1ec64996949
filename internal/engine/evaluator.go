package engine

import (
	"fmt"
	"log/slog"

	"github.com/lgmkit/lgmkit/internal/dataset"
	"github.com/lgmkit/lgmkit/internal/expr"
	"github.com/lgmkit/lgmkit/internal/mapper"
	"github.com/lgmkit/lgmkit/internal/model"
)

// Evaluator evaluates one model against one data frame. Construction
// resolves the inclusion filters, evaluates every included component's
// input specification, and simplifies the mappers; the evaluator is then
// reusable across state sequences.
type Evaluator struct {
	model      *model.Model
	frame      *dataset.Frame
	labels     []string // Included labels, canonical order.
	inputs     map[string]mapper.Input
	simplified []mapper.Simplified
	warnings   []mapper.Warning
	logger     *slog.Logger
	seed       int64
}

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	include []string
	exclude []string
	logger  *slog.Logger
	seed    int64
}

// WithInclude keeps only the named components (nil means all).
func WithInclude(labels []string) Option {
	return func(o *options) { o.include = labels }
}

// WithExclude drops the named components. Exclusion wins over inclusion.
func WithExclude(labels []string) Option {
	return func(o *options) { o.exclude = labels }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSeed requests the deterministic, single-threaded random path for IID
// deviate substitution. Seed 0 keeps the process-wide source.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// New builds an Evaluator for the model over the data frame.
func New(m *model.Model, frame *dataset.Frame, opts ...Option) (*Evaluator, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	labels, err := m.Components.Resolve(o.include, o.exclude)
	if err != nil {
		return nil, err
	}

	e := &Evaluator{
		model:  m,
		frame:  frame,
		labels: labels,
		inputs: make(map[string]mapper.Input, len(labels)),
		logger: o.logger,
		seed:   o.seed,
	}

	items := make([]mapper.Item, 0, len(labels))
	for _, label := range labels {
		c, _ := m.Components.Get(label)
		in, err := e.buildInput(c)
		if err != nil {
			return nil, fmt.Errorf("component %q input: %w", label, err)
		}
		e.inputs[label] = in
		items = append(items, mapper.Item{Label: label, Mapper: c.Mapper, Input: in})
	}

	e.simplified, e.warnings, err = mapper.Simplify(items, e.logger)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("evaluator built",
		"components", len(e.labels),
		"rows", frame.NRows(),
		"warnings", len(e.warnings))
	return e, nil
}

// Labels returns the included component labels in canonical order.
func (e *Evaluator) Labels() []string {
	out := make([]string, len(e.labels))
	copy(out, e.labels)
	return out
}

// Warnings returns the non-fatal simplification warnings (nonlinear
// mappers passed through unsimplified).
func (e *Evaluator) Warnings() []mapper.Warning {
	return e.warnings
}

// Input returns the evaluated input for an included component.
func (e *Evaluator) Input(label string) (mapper.Input, bool) {
	in, ok := e.inputs[label]
	return in, ok
}

// buildInput evaluates a component's input-specification expressions
// against the data frame.
func (e *Evaluator) buildInput(c model.Component) (mapper.Input, error) {
	scope := e.dataScope()
	n := e.frame.NRows()

	main, err := evalInputColumn(c.Main, scope, n)
	if err != nil {
		return mapper.Input{}, fmt.Errorf("main %q: %w", c.Main, err)
	}
	if main == nil {
		return mapper.Input{}, fmt.Errorf("component needs a main specification")
	}

	in := mapper.Input{Main: main}
	rows := main.Len()

	if in.Group, err = evalInputColumn(c.Group, scope, rows); err != nil {
		return mapper.Input{}, fmt.Errorf("group %q: %w", c.Group, err)
	}
	if in.Group == nil {
		in.Group = dataset.Const(1, rows)
	}
	if in.Replicate, err = evalInputColumn(c.Replicate, scope, rows); err != nil {
		return mapper.Input{}, fmt.Errorf("replicate %q: %w", c.Replicate, err)
	}
	if in.Replicate == nil {
		in.Replicate = dataset.Const(1, rows)
	}
	if in.Scale, err = evalInputColumn(c.Scale, scope, rows); err != nil {
		return mapper.Input{}, fmt.Errorf("scale %q: %w", c.Scale, err)
	}
	return in, nil
}

// dataScope builds the base scope: math builtins, every data column by
// name, and the whole frame under ".data.".
func (e *Evaluator) dataScope() *expr.Scope {
	scope := expr.BaseScope()
	for _, name := range e.frame.Names() {
		scope.Set(name, expr.ColumnValue(e.frame.Column(name)))
	}
	scope.Set(".data.", expr.FrameVal{Frame: e.frame})
	return scope
}

// evalInputColumn evaluates one input-specification expression. An empty
// spec yields nil (caller applies defaults); a scalar result broadcasts to
// n rows.
func evalInputColumn(spec string, scope *expr.Scope, n int) (dataset.Column, error) {
	if spec == "" {
		return nil, nil
	}
	v, err := expr.EvaluateString(spec, scope)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(expr.Scalar); ok {
		return dataset.Const(float64(s), n), nil
	}
	return expr.AsColumn(v)
}
