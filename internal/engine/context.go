package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// evalContext is the per-call evaluation context threaded through every
// nested evaluator invocation. It owns the active state index and the IID
// deviate cache explicitly - nothing is captured implicitly in closures
// beyond the context pointer itself.
type evalContext struct {
	// call correlates log lines of one predictor-evaluation call.
	call string

	// stateIndex is the active state index marker. Advancing it is the
	// one and only trigger for IID cache invalidation.
	stateIndex int

	// iid memoizes substituted deviates by stringified lookup key. One
	// deviate per key per state; never reused across states.
	iid map[string]float64

	// rng is the private random source when a nonzero seed was requested;
	// nil selects the process-wide source.
	rng *rand.Rand
}

func newEvalContext(seed int64) *evalContext {
	ec := &evalContext{
		call:       uuid.NewString(),
		stateIndex: -1,
		iid:        make(map[string]float64),
	}
	if seed != 0 {
		ec.rng = rand.New(rand.NewSource(seed))
	}
	return ec
}

// advance moves the active state index to k, clearing the IID cache in
// full when the index actually changes.
func (ec *evalContext) advance(k int) {
	if k == ec.stateIndex {
		return
	}
	ec.stateIndex = k
	ec.iid = make(map[string]float64)
}

// deviate returns the cached deviate for key, drawing Normal(0, sd) on
// first lookup within the active state. Substitution never fails.
func (ec *evalContext) deviate(key string, sd float64) float64 {
	if v, ok := ec.iid[key]; ok {
		return v
	}
	var z float64
	if ec.rng != nil {
		z = ec.rng.NormFloat64()
	} else {
		z = rand.NormFloat64()
	}
	v := z * sd
	ec.iid[key] = v
	return v
}
