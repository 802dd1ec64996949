package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmkit/lgmkit/internal/dataset"
	"github.com/lgmkit/lgmkit/internal/expr"
	"github.com/lgmkit/lgmkit/internal/mapper"
	"github.com/lgmkit/lgmkit/internal/model"
	"github.com/lgmkit/lgmkit/internal/state"
	"github.com/lgmkit/lgmkit/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// interceptXModel is the canonical two-component fixture: a const intercept
// and a linear fixed effect on covariate x.
func interceptXModel(t *testing.T) (*model.Model, *dataset.Frame) {
	t.Helper()
	list, err := model.NewComponentList(
		model.Component{Label: "intercept", Type: model.TypeConst, Main: "1", Mapper: mapper.Const{}},
		model.Component{Label: "x", Type: model.TypeFixed, Main: "x", Mapper: mapper.LinearCov{}},
	)
	require.NoError(t, err)
	m, err := model.New(list)
	require.NoError(t, err)

	frame := testutil.Frame(t, dataset.Col("x", dataset.Numeric{1, 2, 3}))
	return m, frame
}

func newTestEvaluator(t *testing.T, m *model.Model, frame *dataset.Frame, opts ...Option) *Evaluator {
	t.Helper()
	e, err := New(m, frame, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestPredictor_InterceptPlusSlope(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	states := []state.State{{"intercept": {2}, "x": {0.5}}}
	out, err := e.Predictor(states, nil, "intercept_eval() + x_eval(x)", "matrix")
	require.NoError(t, err)

	matrix, ok := out.(*Matrix)
	require.True(t, ok)
	require.Equal(t, 3, matrix.NRows)
	require.Len(t, matrix.Columns, 1)
	assert.Equal(t, []float64{2.5, 3.0, 3.5}, matrix.Columns[0])
}

func TestPredictor_MatrixShape(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	states := []state.State{
		{"intercept": {0}, "x": {1}},
		{"intercept": {1}, "x": {1}},
		{"intercept": {2}, "x": {1}},
		{"intercept": {3}, "x": {1}},
	}
	out, err := e.Predictor(states, nil, "intercept_eval() + x_eval(x)", "matrix")
	require.NoError(t, err)

	matrix := out.(*Matrix)
	assert.Len(t, matrix.Columns, len(states), "one column per state")
	assert.Equal(t, 3, matrix.NRows, "row count fixed by state 0")
	assert.Equal(t, []float64{1, 2, 3}, matrix.Columns[0])
	assert.Equal(t, []float64{4, 5, 6}, matrix.Columns[3])
}

func TestPredictor_AutoFormat(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)
	states := []state.State{{"intercept": {2}, "x": {0.5}}}

	// Flat numeric result: auto picks matrix.
	out, err := e.Predictor(states, nil, "x_eval(x)", "auto")
	require.NoError(t, err)
	_, isMatrix := out.(*Matrix)
	assert.True(t, isMatrix)

	// Scalar result: still a matrix, with a single row.
	out, err = e.Predictor(states, nil, "sum(x_eval(x))", "auto")
	require.NoError(t, err)
	matrix, ok := out.(*Matrix)
	require.True(t, ok)
	assert.Equal(t, 1, matrix.NRows)
	assert.InDelta(t, 3.0, matrix.At(0, 0), 1e-12)
}

func TestPredictor_ListFormat(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)
	states := []state.State{
		{"intercept": {1}, "x": {1}},
		{"intercept": {2}, "x": {1}},
	}

	out, err := e.Predictor(states, nil, "intercept_eval()", "list")
	require.NoError(t, err)
	list, ok := out.(*List)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
	assert.Equal(t, expr.Vector{1, 1, 1}, list.Items[0])
	assert.Equal(t, expr.Vector{2, 2, 2}, list.Items[1])
}

func TestPredictor_EmptyStates(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	_, err := e.Predictor(nil, nil, "x_eval(x)", "auto")
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))

	_, err = e.Predictor([]state.State{}, nil, "x_eval(x)", "auto")
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}

func TestPredictor_BadFormat(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	_, err := e.Predictor([]state.State{{"intercept": {1}, "x": {1}}}, nil, "x_eval(x)", "wide")
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}

func TestPredictor_UnboundName(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	_, err := e.Predictor([]state.State{{"intercept": {1}, "x": {1}}}, nil, "x_eval(x) + nothere", "auto")
	require.Error(t, err)
	assert.True(t, expr.IsUnboundName(err))
}

func TestPredictor_BareEvalGuard(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	_, err := e.Predictor([]state.State{{"intercept": {1}, "x": {1}}}, nil, "eval(x)", "auto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label-qualified")
}

func TestPredictor_StateOverride(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	out, err := e.Predictor(
		[]state.State{{"intercept": {1}, "x": {-100}}},
		nil,
		"x_eval(x, state = 1)",
		"matrix",
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out.(*Matrix).Columns[0])
}

func TestPredictor_WeightsArgument(t *testing.T) {
	list, err := model.NewComponentList(
		model.Component{
			Label:  "x",
			Type:   model.TypeFixed,
			Main:   "x",
			Mapper: mapper.Pipe{Head: mapper.LinearCov{}, Stages: []mapper.Transform{mapper.ScaleWeights{}}},
		},
	)
	require.NoError(t, err)
	m, err := model.New(list)
	require.NoError(t, err)
	frame, err := dataset.NewFrame(
		dataset.Col("x", dataset.Numeric{1, 2, 3}),
		dataset.Col("w", dataset.Numeric{1, 0, 2}),
	)
	require.NoError(t, err)
	e := newTestEvaluator(t, m, frame)

	out, err := e.Predictor(
		[]state.State{{"x": {1}}},
		nil,
		"x_eval(x, weights = w)",
		"matrix",
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 6}, out.(*Matrix).Columns[0])
}

// iidModel has one unstructured component over keys {a, b}; the data holds
// the out-of-domain key "z" at rows 2 and 4 (1-based).
func iidModel(t *testing.T) (*model.Model, *dataset.Frame) {
	t.Helper()
	list, err := model.NewComponentList(
		model.Component{Label: "u", Type: model.TypeIID, Main: "reg", Mapper: mapper.NewIndex([]string{"a", "b"})},
	)
	require.NoError(t, err)
	m, err := model.New(list)
	require.NoError(t, err)
	frame := testutil.Frame(t, dataset.Col("reg", dataset.Factor{"a", "z", "b", "z"}))
	return m, frame
}

func TestPredictor_IIDSameKeySameState(t *testing.T) {
	m, frame := iidModel(t)
	e := newTestEvaluator(t, m, frame, WithSeed(17))

	states := []state.State{{"u": {10, 20}, "Precision_for_u": {4}}}

	// Two lookups of the same unseen key in one state must hit the cache,
	// so the difference is exactly zero everywhere.
	out, err := e.Predictor(states, nil, "u_eval(reg) - u_eval(reg)", "matrix")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, out.(*Matrix).Columns[0])
}

func TestPredictor_IIDRepeatedKeySharesDeviate(t *testing.T) {
	m, frame := iidModel(t)
	e := newTestEvaluator(t, m, frame, WithSeed(17))

	states := []state.State{{"u": {10, 20}, "Precision_for_u": {4}}}
	out, err := e.Predictor(states, nil, "u_eval(reg)", "matrix")
	require.NoError(t, err)

	col := out.(*Matrix).Columns[0]
	assert.Equal(t, 10.0, col[0])
	assert.Equal(t, 20.0, col[2])
	assert.Equal(t, col[1], col[3], "both rows key \"z\": one deviate per key per state")

	// Deviate scale honors the bound precision: first draw from the
	// seeded source, scaled by 4^-0.5.
	want := testutil.SeededNormals(17, 0.5)
	assert.InDelta(t, want[0], col[1], 1e-12)
}

func TestPredictor_IIDIndependentAcrossStates(t *testing.T) {
	m, frame := iidModel(t)
	e := newTestEvaluator(t, m, frame, WithSeed(17))

	states := []state.State{
		{"u": {0, 0}, "Precision_for_u": {4}},
		{"u": {0, 0}, "Precision_for_u": {4}},
	}
	out, err := e.Predictor(states, nil, "u_eval(reg)", "matrix")
	require.NoError(t, err)

	matrix := out.(*Matrix)
	assert.NotEqual(t, matrix.Columns[0][1], matrix.Columns[1][1],
		"cache cleared at the state boundary: same key draws fresh per state")
}

func TestPredictor_IIDSeededReproducible(t *testing.T) {
	m, frame := iidModel(t)
	states := []state.State{
		{"u": {0, 0}, "Precision_for_u": {4}},
		{"u": {0, 0}, "Precision_for_u": {4}},
	}

	run := func() *Matrix {
		e := newTestEvaluator(t, m, frame, WithSeed(99))
		out, err := e.Predictor(states, nil, "u_eval(reg)", "matrix")
		require.NoError(t, err)
		return out.(*Matrix)
	}
	assert.Equal(t, run(), run(), "nonzero seed reproduces the deviate sequence")
}

func TestEffectsSingle_Deterministic(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)
	st := state.State{"intercept": {2}, "x": {0.5}}

	first, err := e.EffectsSingle(st)
	require.NoError(t, err)
	second, err := e.EffectsSingle(st)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []float64{2, 2, 2}, first["intercept"])
	assert.Equal(t, []float64{0.5, 1, 1.5}, first["x"])
}

func TestEffectsMulti_StatesIndependent(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	states := []state.State{
		{"intercept": {1}, "x": {1}},
		{"intercept": {2}, "x": {2}},
	}
	all, err := e.EffectsMulti(states)
	require.NoError(t, err)
	require.Len(t, all, 2)

	single, err := e.EffectsSingle(states[1])
	require.NoError(t, err)
	assert.Equal(t, single, all[1], "multi-state result matches independent per-state evaluation")
}

func TestEffectsMulti_EmptyStates(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	_, err := e.EffectsMulti(nil)
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}

func TestEffects_MissingStateEntry(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	// x is not state-free, so its entry is required.
	_, err := e.EffectsSingle(state.State{"intercept": {2}})
	require.Error(t, err)

	// A missing entry for the const intercept is tolerated.
	eff, err := e.EffectsSingle(state.State{"x": {1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, eff["intercept"])
}

func TestPredictor_EffectsShadowDataColumns(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	states := []state.State{{"intercept": {1}, "x": {1}}}
	effects := []Effects{{"x": {7, 7, 7}}}

	out, err := e.Predictor(states, effects, "x", "matrix")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7}, out.(*Matrix).Columns[0],
		"precomputed effect binding shadows the data column of the same name")
}

func TestEvaluateModel_EffectsOnly(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	res, err := e.EvaluateModel(SingleState{"intercept": {2}, "x": {0.5}}, "", "")
	require.NoError(t, err)
	require.Len(t, res.Effects, 1)
	assert.Nil(t, res.Predictor)
	assert.Equal(t, []float64{0.5, 1, 1.5}, res.Effects[0]["x"])
}

func TestEvaluateModel_PredictorPath(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	res, err := e.EvaluateModel(
		StateSequence{{"intercept": {2}, "x": {0.5}}},
		"intercept_eval() + x_eval(x)",
		"matrix",
	)
	require.NoError(t, err)
	assert.Nil(t, res.Effects)
	assert.Equal(t, []float64{2.5, 3.0, 3.5}, res.Predictor.(*Matrix).Columns[0])
}

func TestEvaluateModel_DataColumnsNotShadowed(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	// The component and the covariate share the name "x". The top-level
	// operation must hand the closure the data column, not a rebound
	// effect vector: [1,2,3] * 0.5, not [0.5,1,1.5] * 0.5.
	res, err := e.EvaluateModel(
		StateSequence{{"intercept": {2}, "x": {0.5}}},
		"x_eval(x)",
		"matrix",
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 1.5}, res.Predictor.(*Matrix).Columns[0])

	// A bare reference to "x" resolves to the data column as well.
	res, err = e.EvaluateModel(
		StateSequence{{"intercept": {2}, "x": {0.5}}},
		"x",
		"matrix",
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, res.Predictor.(*Matrix).Columns[0])
}

func TestEvaluateModel_NilStates(t *testing.T) {
	m, frame := interceptXModel(t)
	e := newTestEvaluator(t, m, frame)

	_, err := e.EvaluateModel(nil, "", "")
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))

	_, err = e.EvaluateModel(StateSequence{}, "", "")
	require.Error(t, err)
}

func TestNew_InclusionFilters(t *testing.T) {
	m, frame := interceptXModel(t)

	e := newTestEvaluator(t, m, frame, WithExclude([]string{"intercept"}))
	assert.Equal(t, []string{"x"}, e.Labels())

	_, err := New(m, frame, WithLogger(quietLogger()), WithInclude([]string{"ghost"}))
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}

func TestNew_NonlinearWarning(t *testing.T) {
	list, err := model.NewComponentList(
		model.Component{
			Label:  "field",
			Type:   model.TypeOther,
			Main:   "x",
			Mapper: mapper.Pipe{Head: mapper.LinearCov{}, Stages: []mapper.Transform{mapper.ExpLink{}}},
		},
	)
	require.NoError(t, err)
	m, err := model.New(list)
	require.NoError(t, err)
	frame, err := dataset.NewFrame(dataset.Col("x", dataset.Numeric{1}))
	require.NoError(t, err)

	e := newTestEvaluator(t, m, frame)
	require.Len(t, e.Warnings(), 1)
	assert.Equal(t, "field", e.Warnings()[0].Label)
}
