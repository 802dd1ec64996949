package engine

import (
	"fmt"

	"github.com/lgmkit/lgmkit/internal/model"
	"github.com/lgmkit/lgmkit/internal/state"
)

// Effects is the per-component effect contribution for one state: one flat
// numeric vector per included component label.
type Effects map[string][]float64

// EffectsSingle applies the simplified mappers to one state.
//
// Pure function over (mappers, inputs, state): no shared mutable state, no
// randomness, bit-identical output for identical arguments. Components
// whose type is state-free (offset, const) tolerate a missing state entry;
// every other component requires one.
func (e *Evaluator) EffectsSingle(st state.State) (Effects, error) {
	out := make(Effects, len(e.simplified))
	for _, s := range e.simplified {
		c, _ := e.model.Components.Get(s.Label)
		vec, ok := st[s.Label]
		if !ok {
			if !c.Type.StateFree() {
				return nil, fmt.Errorf("state has no entry for component %q", s.Label)
			}
			vec = make([]float64, s.Mapper.OutputDim())
		}
		eff, err := s.Mapper.Eval(e.inputs[s.Label], vec)
		if err != nil {
			return nil, fmt.Errorf("evaluate component %q: %w", s.Label, err)
		}
		out[s.Label] = eff
	}
	return out, nil
}

// EffectsMulti applies EffectsSingle independently per state. States never
// interact; the k-th output depends only on the k-th input state.
func (e *Evaluator) EffectsMulti(states []state.State) ([]Effects, error) {
	if len(states) == 0 {
		return nil, model.NewConfigurationError(model.ErrCodeEmptyStates,
			"state sequence is empty")
	}
	out := make([]Effects, len(states))
	for k, st := range states {
		eff, err := e.EffectsSingle(st)
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", k, err)
		}
		out[k] = eff
	}
	return out, nil
}
