package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmkit/lgmkit/internal/dataset"
)

func evalString(t *testing.T, src string, scope *Scope) Value {
	t.Helper()
	v, err := EvaluateString(src, scope)
	require.NoError(t, err)
	return v
}

func TestEvaluate_Arithmetic(t *testing.T) {
	s := NewScope()

	assert.Equal(t, Scalar(7), evalString(t, "1 + 2 * 3", s))
	assert.Equal(t, Scalar(9), evalString(t, "(1 + 2) * 3", s))
	assert.Equal(t, Scalar(-4), evalString(t, "-2^2", s))
	assert.Equal(t, Scalar(512), evalString(t, "2^3^2", s), "power is right-associative")
	assert.Equal(t, Scalar(2.5), evalString(t, "5 / 2", s))
}

func TestEvaluate_VectorBroadcasting(t *testing.T) {
	s := NewScope()
	s.Set("x", Vector{1, 2, 3})

	assert.Equal(t, Vector{2, 4, 6}, evalString(t, "2 * x", s))
	assert.Equal(t, Vector{2, 4, 6}, evalString(t, "x + x", s))
	assert.Equal(t, Vector{0, 1, 2}, evalString(t, "x - 1", s))
}

func TestEvaluate_ShapeMismatch(t *testing.T) {
	s := NewScope()
	s.Set("x", Vector{1, 2, 3})
	s.Set("y", Vector{1, 2})

	_, err := EvaluateString("x + y", s)
	require.Error(t, err)
	var ee *EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeShape, ee.Code)
}

func TestEvaluate_UnboundName(t *testing.T) {
	_, err := EvaluateString("nope + 1", NewScope())
	require.Error(t, err)
	assert.True(t, IsUnboundName(err))
}

func TestEvaluate_Indexing(t *testing.T) {
	s := NewScope()
	s.Set("x", Vector{10, 20, 30})
	s.Set("r", Strings{"a", "b"})

	assert.Equal(t, Scalar(10), evalString(t, "x[1]", s), "indexing is 1-based")
	assert.Equal(t, Scalar(30), evalString(t, "x[3]", s))
	assert.Equal(t, Str("b"), evalString(t, "r[2]", s))

	_, err := EvaluateString("x[0]", s)
	require.Error(t, err)
	_, err = EvaluateString("x[4]", s)
	require.Error(t, err)
}

func TestEvaluate_FrameIndexing(t *testing.T) {
	f, err := dataset.NewFrame(Col("x"))
	require.NoError(t, err)

	s := NewScope()
	s.Set(".data.", FrameVal{Frame: f})

	assert.Equal(t, Vector{1, 2}, evalString(t, `.data.["x"]`, s))

	_, err = EvaluateString(`.data.["missing"]`, s)
	require.Error(t, err)
	assert.True(t, IsUnboundName(err))
}

// Col builds the single fixture column used by frame tests.
func Col(name string) dataset.NamedColumn {
	return dataset.Col(name, dataset.Numeric{1, 2})
}

func TestEvaluate_NamedArguments(t *testing.T) {
	s := NewScope()
	var got CallCtx
	s.Set("f", Func{Name: "f", Call: func(ctx CallCtx) (Value, error) {
		got = ctx
		return Scalar(1), nil
	}})
	s.Set("g", Vector{9, 9})

	_, err := EvaluateString("f(g, weights = 2 + 3)", s)
	require.NoError(t, err)
	require.Len(t, got.Pos, 1)
	assert.Equal(t, Vector{9, 9}, got.Pos[0])
	assert.Equal(t, Scalar(5), got.Named["weights"])
}

func TestEvaluate_CallNonFunction(t *testing.T) {
	s := NewScope()
	s.Set("x", Scalar(1))
	_, err := EvaluateString("x(1)", s)
	require.Error(t, err)
	var ee *EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeBadCall, ee.Code)
}

func TestEvaluate_Builtins(t *testing.T) {
	s := BaseScope()
	s.Set("x", Vector{1, 4, 9})

	assert.Equal(t, Vector{1, 2, 3}, evalString(t, "sqrt(x)", s))
	assert.Equal(t, Scalar(14), evalString(t, "sum(x)", s))
	assert.InDelta(t, 14.0/3, float64(evalString(t, "mean(x)", s).(Scalar)), 1e-12)
	assert.Equal(t, Vector{1, 2}, evalString(t, "c(1, 2)", s))
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, src := range []string{"1 +", "(1", "f(a,", "x[", "1 ? 2", `"open`} {
		_, err := Parse(src)
		require.Error(t, err, "source %q", src)
		var ee *EvaluationError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, ErrCodeSyntax, ee.Code)
	}
}

func TestLexer_DottedIdent(t *testing.T) {
	n, err := Parse("Precision_for_u + 0")
	require.NoError(t, err)
	bin, ok := n.(*BinaryNode)
	require.True(t, ok)
	ident, ok := bin.Left.(*IdentNode)
	require.True(t, ok)
	assert.Equal(t, "Precision_for_u", ident.Name)
}
