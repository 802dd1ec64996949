package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmkit/lgmkit/internal/mapper"
)

func testList(t *testing.T, labels ...string) *ComponentList {
	t.Helper()
	comps := make([]Component, len(labels))
	for i, l := range labels {
		comps[i] = Component{Label: l, Type: TypeFixed, Main: l, Mapper: mapper.LinearCov{}}
	}
	list, err := NewComponentList(comps...)
	require.NoError(t, err)
	return list
}

func TestResolve_Identity(t *testing.T) {
	list := testList(t, "a", "b", "c")
	got, err := list.Resolve(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestResolve_ExcludeWins(t *testing.T) {
	list := testList(t, "a", "b", "c")

	got, err := list.Resolve(nil, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)

	// A label both included and excluded is excluded.
	got, err = list.Resolve([]string{"a"}, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_OrderFromCanonicalList(t *testing.T) {
	list := testList(t, "a", "b", "c")
	got, err := list.Resolve([]string{"c", "a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got, "include order never reorders the result")
}

func TestResolve_UnknownLabel(t *testing.T) {
	list := testList(t, "a")

	_, err := list.Resolve([]string{"nope"}, nil)
	require.Error(t, err)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeUnknownLabel, ce.Code)

	_, err = list.Resolve(nil, []string{"nope"})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}

func TestNewComponentList_DuplicateLabel(t *testing.T) {
	_, err := NewComponentList(
		Component{Label: "a", Type: TypeFixed, Mapper: mapper.LinearCov{}},
		Component{Label: "a", Type: TypeIID, Mapper: mapper.NewIndex([]string{"k"})},
	)
	require.Error(t, err)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeDuplicateLabel, ce.Code)
}

func TestNewComponentList_BadType(t *testing.T) {
	_, err := NewComponentList(Component{Label: "a", Type: "bogus"})
	require.Error(t, err)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeBadType, ce.Code)
}

func TestParseType(t *testing.T) {
	for _, s := range []string{"fixed", "offset", "const", "iid", "other"} {
		tp, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, Type(s), tp)
	}
	_, err := ParseType("linear")
	require.Error(t, err)
}

func TestFormula_AllLinearFoldsOffsets(t *testing.T) {
	list, err := NewComponentList(
		Component{Label: "intercept", Type: TypeConst, Mapper: mapper.Const{}},
		Component{Label: "x", Type: TypeFixed, Mapper: mapper.LinearCov{}},
		Component{Label: "expose", Type: TypeOffset, Mapper: mapper.Const{}},
	)
	require.NoError(t, err)

	m, err := New(list, Likelihood{Family: "gaussian", Response: "y"})
	require.NoError(t, err)

	f := m.Formula()
	assert.Equal(t, []string{"x"}, f.Terms)
	assert.Equal(t, []string{"intercept", "expose"}, f.Offsets)
	assert.Equal(t, "~ -1 + x + offset(intercept) + offset(expose)", f.String())
}

func TestFormula_NonlinearLikelihoodKeepsTerms(t *testing.T) {
	list, err := NewComponentList(
		Component{Label: "intercept", Type: TypeConst, Mapper: mapper.Const{}},
		Component{Label: "x", Type: TypeFixed, Mapper: mapper.LinearCov{}},
	)
	require.NoError(t, err)

	m, err := New(list,
		Likelihood{Family: "gaussian", Response: "y1"},
		Likelihood{Family: "poisson", Response: "y2"},
	)
	require.NoError(t, err)

	f := m.Formula()
	assert.Equal(t, []string{"intercept", "x"}, f.Terms)
	assert.Empty(t, f.Offsets)
}

func TestFormula_UnionOfLikelihoodUses(t *testing.T) {
	list := testList(t, "a", "b", "c")
	m, err := New(list,
		Likelihood{Family: "poisson", Response: "y1", Uses: []string{"c"}},
		Likelihood{Family: "poisson", Response: "y2", Uses: []string{"a"}},
	)
	require.NoError(t, err)

	f := m.Formula()
	assert.Equal(t, []string{"a", "c"}, f.Terms, "union in canonical order")
}

func TestNew_UnknownUsesLabel(t *testing.T) {
	list := testList(t, "a")
	_, err := New(list, Likelihood{Family: "gaussian", Uses: []string{"zzz"}})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}

func TestComponentList_NFCNormalization(t *testing.T) {
	// "é" composed vs decomposed must collide.
	composed := "café"
	decomposed := "café"
	_, err := NewComponentList(
		Component{Label: composed, Type: TypeFixed, Mapper: mapper.LinearCov{}},
		Component{Label: decomposed, Type: TypeFixed, Mapper: mapper.LinearCov{}},
	)
	require.Error(t, err)

	list, err := NewComponentList(Component{Label: decomposed, Type: TypeFixed, Mapper: mapper.LinearCov{}})
	require.NoError(t, err)
	_, ok := list.Get(composed)
	assert.True(t, ok)
}
