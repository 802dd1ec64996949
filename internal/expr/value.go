package expr

import (
	"github.com/lgmkit/lgmkit/internal/dataset"
)

// Value is a sealed interface representing the constrained value types of
// the predictor language. Only Scalar, Vector, Strings, Str, FrameVal and
// Func implement it.
type Value interface {
	value() // Sealed - only these types implement it.
}

// Scalar is a single numeric value.
type Scalar float64

func (Scalar) value() {}

// Vector is a numeric vector. Effect contributions and latent-state vectors
// surface in the scope as Vectors.
type Vector []float64

func (Vector) value() {}

// Strings is a vector of factor keys.
type Strings []string

func (Strings) value() {}

// Str is a single string value (string literals).
type Str string

func (Str) value() {}

// FrameVal wraps a whole data frame. The raw data object is bound in the
// scope under the ".data." name so expressions can reach columns that were
// shadowed by later bindings.
type FrameVal struct {
	Frame *dataset.Frame
}

func (FrameVal) value() {}

// CallCtx carries the arguments of one function application.
// Positional arguments keep their order; named arguments are keyed by name.
type CallCtx struct {
	Pos   []Value
	Named map[string]Value
}

// Arg returns the i-th positional argument or the named fallback, in that
// order of preference. ok is false when neither is present.
func (c CallCtx) Arg(i int, name string) (Value, bool) {
	if i < len(c.Pos) {
		return c.Pos[i], true
	}
	v, ok := c.Named[name]
	return v, ok
}

// Func is a callable bound in the scope, such as a component evaluator
// closure or a math builtin.
type Func struct {
	// Name identifies the function in error messages.
	Name string

	// Call applies the function to the given arguments.
	Call func(ctx CallCtx) (Value, error)
}

func (Func) value() {}

// ColumnValue converts a dataset column into the corresponding Value variant.
func ColumnValue(col dataset.Column) Value {
	switch c := col.(type) {
	case dataset.Numeric:
		return Vector(c)
	case dataset.Factor:
		return Strings(c)
	default:
		// Unreachable: Column is sealed.
		return nil
	}
}

// AsColumn converts a Value back into a dataset column where possible.
func AsColumn(v Value) (dataset.Column, error) {
	switch val := v.(type) {
	case Scalar:
		return dataset.Numeric{float64(val)}, nil
	case Vector:
		return dataset.Numeric(val), nil
	case Strings:
		return dataset.Factor(val), nil
	case Str:
		return dataset.Factor{string(val)}, nil
	default:
		return nil, NewEvaluationError(ErrCodeBadOperand, "value cannot be used as data column")
	}
}
