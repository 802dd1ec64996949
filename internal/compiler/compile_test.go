package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmkit/lgmkit/internal/mapper"
	"github.com/lgmkit/lgmkit/internal/model"
)

func compile(t *testing.T, src string) (*model.Model, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileModel(v)
}

func TestCompileModel(t *testing.T) {
	m, err := compile(t, `
model: {
	components: [
		{label: "intercept", type: "const", main: "1"},
		{label: "x", type: "fixed", main: "x"},
		{label: "u", type: "iid", main: "site", levels: ["a", "b", "c"]},
	]
	likelihoods: [
		{family: "gaussian", response: "y"},
	]
}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"intercept", "x", "u"}, m.Components.Labels())

	x, ok := m.Components.Get("x")
	require.True(t, ok)
	assert.Equal(t, model.TypeFixed, x.Type)
	assert.Equal(t, "x", x.Main)
	assert.IsType(t, mapper.LinearCov{}, x.Mapper)

	intercept, ok := m.Components.Get("intercept")
	require.True(t, ok)
	assert.IsType(t, mapper.Const{}, intercept.Mapper)

	u, ok := m.Components.Get("u")
	require.True(t, ok)
	assert.Equal(t, 3, u.Mapper.OutputDim())

	require.Len(t, m.Likelihoods, 1)
	assert.Equal(t, "gaussian", m.Likelihoods[0].Family)
	assert.Equal(t, "y", m.Likelihoods[0].Response)
}

func TestCompileModelDefaultsMapperFromType(t *testing.T) {
	m, err := compile(t, `
model: components: [
	{label: "expose", type: "offset", main: "log_pop"},
]`)
	require.NoError(t, err)

	c, ok := m.Components.Get("expose")
	require.True(t, ok)
	assert.IsType(t, mapper.Offset{}, c.Mapper)
	assert.Equal(t, 0, c.Mapper.OutputDim())
}

func TestCompileModelScaleAndLink(t *testing.T) {
	m, err := compile(t, `
model: components: [
	{label: "x", type: "fixed", main: "x", scale: "w", link: "exp"},
]`)
	require.NoError(t, err)

	c, ok := m.Components.Get("x")
	require.True(t, ok)
	assert.Equal(t, "w", c.Scale)

	pipe, ok := c.Mapper.(mapper.Pipe)
	require.True(t, ok)
	assert.IsType(t, mapper.LinearCov{}, pipe.Head)
	require.Len(t, pipe.Stages, 2)
	assert.IsType(t, mapper.ScaleWeights{}, pipe.Stages[0])
	assert.IsType(t, mapper.ExpLink{}, pipe.Stages[1])
	assert.False(t, c.Mapper.Linear())
}

func TestCompileModelErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing model",
			src:   `other: 1`,
			field: "model",
		},
		{
			name:  "no components",
			src:   `model: components: []`,
			field: "components",
		},
		{
			name:  "missing label",
			src:   `model: components: [{type: "fixed", main: "x"}]`,
			field: "label",
		},
		{
			name:  "missing main",
			src:   `model: components: [{label: "x", type: "fixed"}]`,
			field: "main",
		},
		{
			name:  "bad type",
			src:   `model: components: [{label: "x", type: "spline", main: "x"}]`,
			field: "type",
		},
		{
			name:  "index without levels",
			src:   `model: components: [{label: "u", type: "iid", main: "site"}]`,
			field: "levels",
		},
		{
			name:  "unknown mapper kind",
			src:   `model: components: [{label: "x", type: "fixed", main: "x", mapper: "spde"}]`,
			field: "mapper",
		},
		{
			name:  "unknown link",
			src:   `model: components: [{label: "x", type: "fixed", main: "x", link: "probit"}]`,
			field: "link",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileModelDuplicateLabel(t *testing.T) {
	_, err := compile(t, `
model: components: [
	{label: "x", type: "fixed", main: "x"},
	{label: "x", type: "fixed", main: "x2"},
]`)
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}

func TestCompileModelLikelihoodUsesUnknownLabel(t *testing.T) {
	_, err := compile(t, `
model: {
	components: [{label: "x", type: "fixed", main: "x"}]
	likelihoods: [{family: "gaussian", response: "y", uses: ["ghost"]}]
}`)
	require.Error(t, err)
	assert.True(t, model.IsConfiguration(err))
}
