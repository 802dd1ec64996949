// Package state models posterior latent states and their extraction from a
// fitted result.
//
// A State maps component labels (and hyperparameter names such as
// "Precision_for_u") to latent coefficient vectors. A state sequence is an
// ordered list of states, each representing one posterior draw or one
// summary statistic.
package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lgmkit/lgmkit/internal/model"
)

// State is one realization of every component's latent coefficient vector.
type State map[string][]float64

// Clone deep-copies the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		vec := make([]float64, len(v))
		copy(vec, v)
		out[k] = vec
	}
	return out
}

// Property selects what to extract from a fitted result.
type Property string

const (
	PropertyMode     Property = "mode"
	PropertyMean     Property = "mean"
	PropertySD       Property = "sd"
	PropertyQuantile Property = "quantile"
	PropertySample   Property = "sample"
)

// ParseProperty parses a property selector. Quantiles are written
// "quantile-p", e.g. "quantile-0.025"; the probability is returned
// alongside. Anything outside the enumerated set is a configuration error.
func ParseProperty(s string) (Property, float64, error) {
	switch Property(s) {
	case PropertyMode, PropertyMean, PropertySD, PropertySample:
		return Property(s), 0, nil
	}
	if rest, ok := strings.CutPrefix(s, string(PropertyQuantile)+"-"); ok {
		p, err := strconv.ParseFloat(rest, 64)
		if err != nil || p <= 0 || p >= 1 {
			return "", 0, model.NewConfigurationError(model.ErrCodeBadProperty,
				"bad quantile probability %q: need a number in (0, 1)", rest)
		}
		return PropertyQuantile, p, nil
	}
	return "", 0, model.NewConfigurationError(model.ErrCodeBadProperty,
		"unknown property %q: must be mode, mean, sd, quantile-p or sample", s)
}

// Result is the surface this engine needs from the external solver's fitted
// result object. Implementations must honor the seed contract of Sample:
// seed 0 may sample non-deterministically (the solver is free to
// parallelize), any nonzero seed must force single-threaded, reproducible
// sampling.
type Result interface {
	// Summary extracts one summary state. quantile is only meaningful for
	// PropertyQuantile. internalHyper selects the internal/unconstrained
	// hyperparameter scale instead of the model scale.
	Summary(p Property, quantile float64, internalHyper bool) (State, error)

	// Sample draws n posterior states.
	Sample(n int, seed int64) ([]State, error)
}

// Extract implements the state-provider operation.
//
// property "sample" yields n draws; the summary properties yield a
// length-1 sequence (internalHyper is ignored for "sample"). A nil result
// yields a single all-zero state, one zero vector per component sized by
// that component's mapper output dimension, so a model can be evaluated
// before fitting.
func Extract(m *model.Model, r Result, property string, n int, seed int64, internalHyper bool) ([]State, error) {
	prop, quantile, err := ParseProperty(property)
	if err != nil {
		return nil, err
	}

	if r == nil {
		return []State{ZeroState(m)}, nil
	}

	if prop == PropertySample {
		states, err := r.Sample(n, seed)
		if err != nil {
			return nil, fmt.Errorf("sample posterior states: %w", err)
		}
		return states, nil
	}

	st, err := r.Summary(prop, quantile, internalHyper)
	if err != nil {
		return nil, fmt.Errorf("extract %s summary: %w", prop, err)
	}
	return []State{st}, nil
}

// ZeroState builds the all-zero state for a model, sized per component by
// its mapper's output dimension.
func ZeroState(m *model.Model) State {
	st := make(State, m.Components.Len())
	for _, c := range m.Components.All() {
		st[c.Label] = make([]float64, c.Mapper.OutputDim())
	}
	return st
}
