package engine

import (
	"github.com/lgmkit/lgmkit/internal/model"
	"github.com/lgmkit/lgmkit/internal/state"
)

// StateArg is a sealed interface over the accepted state-argument shapes:
// a single state or a state sequence. The closed variant set replaces
// runtime type sniffing - every dispatch path is enumerated in the switch
// inside EvaluateModel.
type StateArg interface {
	stateArg() // Sealed - only engine types implement it.
}

// SingleState wraps one state.
type SingleState state.State

func (SingleState) stateArg() {}

// StateSequence wraps an ordered state sequence.
type StateSequence []state.State

func (StateSequence) stateArg() {}

// ModelResult is the result of EvaluateModel: per-state effects when no
// predictor expression was given, predictor values otherwise. Exactly one
// field is set.
type ModelResult struct {
	Effects   []Effects
	Predictor Output
}

// EvaluateModel is the top-level evaluation operation.
//
// With an empty predictor expression it returns per-component effect
// contributions, one Effects per state. With a predictor expression it
// returns the predictor values in the requested format. No effects are
// bound into the predictor scope on this path: rebinding them would
// shadow same-named data columns, so `x_eval(x)` over a covariate named
// like its component would silently map the effect vector instead of the
// data. Callers who want effect bindings pass them to Predictor directly.
func (e *Evaluator) EvaluateModel(arg StateArg, predictor string, format string) (*ModelResult, error) {
	var states []state.State
	switch a := arg.(type) {
	case SingleState:
		states = []state.State{state.State(a)}
	case StateSequence:
		states = a
	case nil:
		states = nil
	default:
		// Unreachable: StateArg is sealed.
	}
	if len(states) == 0 {
		return nil, model.NewConfigurationError(model.ErrCodeEmptyStates,
			"model evaluation needs at least one state")
	}

	if predictor == "" {
		effects, err := e.EffectsMulti(states)
		if err != nil {
			return nil, err
		}
		return &ModelResult{Effects: effects}, nil
	}

	out, err := e.Predictor(states, nil, predictor, format)
	if err != nil {
		return nil, err
	}
	return &ModelResult{Predictor: out}, nil
}
