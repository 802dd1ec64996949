package expr

import (
	"math"
)

// Evaluate runs the AST against the scope.
//
// Evaluation is strictly synchronous and exhaustively matches the sealed
// node and value variants. Any failure is an EvaluationError and aborts the
// whole expression.
func Evaluate(n Node, scope *Scope) (Value, error) {
	switch node := n.(type) {
	case *NumberNode:
		return Scalar(node.Value), nil
	case *StringNode:
		return Str(node.Value), nil
	case *IdentNode:
		v, ok := scope.Get(node.Name)
		if !ok {
			return nil, &EvaluationError{
				Code:    ErrCodeUnboundName,
				Message: "name is not bound in the evaluation scope",
				Name:    node.Name,
			}
		}
		return v, nil
	case *UnaryNode:
		v, err := Evaluate(node.Operand, scope)
		if err != nil {
			return nil, err
		}
		return negate(v)
	case *BinaryNode:
		left, err := Evaluate(node.Left, scope)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(node.Right, scope)
		if err != nil {
			return nil, err
		}
		return applyBinary(node.Op, left, right)
	case *IndexNode:
		return evalIndex(node, scope)
	case *CallNode:
		return evalCall(node, scope)
	default:
		// Unreachable: Node is sealed.
		return nil, NewEvaluationError(ErrCodeBadOperand, "unknown AST node")
	}
}

// EvaluateString parses and evaluates src in one step.
func EvaluateString(src string, scope *Scope) (Value, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Evaluate(n, scope)
}

func negate(v Value) (Value, error) {
	switch val := v.(type) {
	case Scalar:
		return -val, nil
	case Vector:
		out := make(Vector, len(val))
		for i, x := range val {
			out[i] = -x
		}
		return out, nil
	default:
		return nil, NewEvaluationError(ErrCodeBadOperand, "unary minus needs a numeric operand")
	}
}

// applyBinary applies op elementwise with scalar broadcasting.
func applyBinary(op BinaryOp, left, right Value) (Value, error) {
	f, err := binaryFunc(op)
	if err != nil {
		return nil, err
	}

	ls, lok := left.(Scalar)
	rs, rok := right.(Scalar)
	if lok && rok {
		return Scalar(f(float64(ls), float64(rs))), nil
	}

	lv, lvec := left.(Vector)
	rv, rvec := right.(Vector)
	switch {
	case lvec && rvec:
		if len(lv) != len(rv) {
			return nil, NewEvaluationError(ErrCodeShape, "operand lengths differ: %d vs %d", len(lv), len(rv))
		}
		out := make(Vector, len(lv))
		for i := range lv {
			out[i] = f(lv[i], rv[i])
		}
		return out, nil
	case lvec && rok:
		out := make(Vector, len(lv))
		for i := range lv {
			out[i] = f(lv[i], float64(rs))
		}
		return out, nil
	case lok && rvec:
		out := make(Vector, len(rv))
		for i := range rv {
			out[i] = f(float64(ls), rv[i])
		}
		return out, nil
	default:
		return nil, NewEvaluationError(ErrCodeBadOperand, "operator %q needs numeric operands", op)
	}
}

func binaryFunc(op BinaryOp) (func(a, b float64) float64, error) {
	switch op {
	case OpAdd:
		return func(a, b float64) float64 { return a + b }, nil
	case OpSub:
		return func(a, b float64) float64 { return a - b }, nil
	case OpMul:
		return func(a, b float64) float64 { return a * b }, nil
	case OpDiv:
		return func(a, b float64) float64 { return a / b }, nil
	case OpPow:
		return math.Pow, nil
	default:
		return nil, NewEvaluationError(ErrCodeBadOperand, "unknown operator %q", op)
	}
}

// evalIndex implements 1-based subscripting of vectors, factor columns and
// frames (frames are indexed by column name).
func evalIndex(node *IndexNode, scope *Scope) (Value, error) {
	target, err := Evaluate(node.Target, scope)
	if err != nil {
		return nil, err
	}
	idx, err := Evaluate(node.Index, scope)
	if err != nil {
		return nil, err
	}

	if fv, ok := target.(FrameVal); ok {
		name, ok := idx.(Str)
		if !ok {
			return nil, NewEvaluationError(ErrCodeBadIndex, "frame index must be a column name")
		}
		col := fv.Frame.Column(string(name))
		if col == nil {
			return nil, &EvaluationError{Code: ErrCodeUnboundName, Message: "no such data column", Name: string(name)}
		}
		return ColumnValue(col), nil
	}

	pos, ok := idx.(Scalar)
	if !ok {
		return nil, NewEvaluationError(ErrCodeBadIndex, "index must be a number")
	}
	i := int(pos)
	switch val := target.(type) {
	case Vector:
		if i < 1 || i > len(val) {
			return nil, NewEvaluationError(ErrCodeBadIndex, "index %d out of range [1, %d]", i, len(val))
		}
		return Scalar(val[i-1]), nil
	case Strings:
		if i < 1 || i > len(val) {
			return nil, NewEvaluationError(ErrCodeBadIndex, "index %d out of range [1, %d]", i, len(val))
		}
		return Str(val[i-1]), nil
	default:
		return nil, NewEvaluationError(ErrCodeBadOperand, "value is not indexable")
	}
}

func evalCall(node *CallNode, scope *Scope) (Value, error) {
	target, err := Evaluate(node.Target, scope)
	if err != nil {
		return nil, err
	}
	fn, ok := target.(Func)
	if !ok {
		return nil, NewEvaluationError(ErrCodeBadCall, "value is not callable")
	}

	ctx := CallCtx{Named: make(map[string]Value)}
	for _, arg := range node.Args {
		v, err := Evaluate(arg.Expr, scope)
		if err != nil {
			return nil, err
		}
		if arg.Name == "" {
			ctx.Pos = append(ctx.Pos, v)
		} else {
			ctx.Named[arg.Name] = v
		}
	}
	return fn.Call(ctx)
}
