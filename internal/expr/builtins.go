package expr

import (
	"math"
)

// BaseScope returns a scope preloaded with the math builtins available to
// every predictor expression: exp, log, sqrt, abs (elementwise), sum, mean
// (reductions) and c (numeric concatenation).
func BaseScope() *Scope {
	s := NewScope()
	s.Set("exp", elementwise("exp", math.Exp))
	s.Set("log", elementwise("log", math.Log))
	s.Set("sqrt", elementwise("sqrt", math.Sqrt))
	s.Set("abs", elementwise("abs", math.Abs))
	s.Set("sum", reduction("sum", func(xs []float64) float64 {
		var t float64
		for _, x := range xs {
			t += x
		}
		return t
	}))
	s.Set("mean", reduction("mean", func(xs []float64) float64 {
		if len(xs) == 0 {
			return math.NaN()
		}
		var t float64
		for _, x := range xs {
			t += x
		}
		return t / float64(len(xs))
	}))
	s.Set("c", Func{Name: "c", Call: concat})
	return s
}

func elementwise(name string, f func(float64) float64) Func {
	return Func{Name: name, Call: func(ctx CallCtx) (Value, error) {
		if len(ctx.Pos) != 1 || len(ctx.Named) != 0 {
			return nil, NewEvaluationError(ErrCodeBadCall, "%s takes exactly one argument", name)
		}
		switch v := ctx.Pos[0].(type) {
		case Scalar:
			return Scalar(f(float64(v))), nil
		case Vector:
			out := make(Vector, len(v))
			for i, x := range v {
				out[i] = f(x)
			}
			return out, nil
		default:
			return nil, NewEvaluationError(ErrCodeBadCall, "%s needs a numeric argument", name)
		}
	}}
}

func reduction(name string, f func([]float64) float64) Func {
	return Func{Name: name, Call: func(ctx CallCtx) (Value, error) {
		if len(ctx.Pos) != 1 || len(ctx.Named) != 0 {
			return nil, NewEvaluationError(ErrCodeBadCall, "%s takes exactly one argument", name)
		}
		switch v := ctx.Pos[0].(type) {
		case Scalar:
			return Scalar(f([]float64{float64(v)})), nil
		case Vector:
			return Scalar(f(v)), nil
		default:
			return nil, NewEvaluationError(ErrCodeBadCall, "%s needs a numeric argument", name)
		}
	}}
}

func concat(ctx CallCtx) (Value, error) {
	if len(ctx.Named) != 0 {
		return nil, NewEvaluationError(ErrCodeBadCall, "c takes positional arguments only")
	}
	var out Vector
	for _, v := range ctx.Pos {
		switch val := v.(type) {
		case Scalar:
			out = append(out, float64(val))
		case Vector:
			out = append(out, val...)
		default:
			return nil, NewEvaluationError(ErrCodeBadCall, "c needs numeric arguments")
		}
	}
	return out, nil
}
