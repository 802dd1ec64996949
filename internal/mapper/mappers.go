package mapper

import (
	"fmt"
	"math"

	"github.com/lgmkit/lgmkit/internal/dataset"
)

// LinearCov maps a numeric covariate through a single slope coefficient:
// effect[i] = main[i] * state[0].
type LinearCov struct{}

// Eval implements Mapper.
func (LinearCov) Eval(in Input, state []float64) ([]float64, error) {
	main, err := numericMain(in)
	if err != nil {
		return nil, err
	}
	if len(state) != 1 {
		return nil, fmt.Errorf("linear mapper needs a length-1 state, got %d", len(state))
	}
	out := make([]float64, len(main))
	for i, v := range main {
		out[i] = v * state[0]
	}
	return out, nil
}

// Linear implements Mapper.
func (LinearCov) Linear() bool { return true }

// OutputDim implements Mapper.
func (LinearCov) OutputDim() int { return 1 }

// Const maps a constant or offset column. The state is optional: with a
// coefficient present the effect is main[i] * state[0] (intercept-style),
// without one the main values pass through unchanged (offset-style).
type Const struct{}

// Eval implements Mapper.
func (Const) Eval(in Input, state []float64) ([]float64, error) {
	main, err := numericMain(in)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(main))
	if len(state) == 0 {
		copy(out, main)
		return out, nil
	}
	for i, v := range main {
		out[i] = v * state[0]
	}
	return out, nil
}

// Linear implements Mapper.
func (Const) Linear() bool { return true }

// OutputDim implements Mapper.
func (Const) OutputDim() int { return 1 }

// Offset passes the main column straight into the predictor. It consumes
// no latent coefficients at all: OutputDim is zero and the state argument
// is ignored.
type Offset struct{}

// Eval implements Mapper.
func (Offset) Eval(in Input, state []float64) ([]float64, error) {
	main, err := numericMain(in)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(main))
	copy(out, main)
	return out, nil
}

// Linear implements Mapper.
func (Offset) Linear() bool { return true }

// OutputDim implements Mapper.
func (Offset) OutputDim() int { return 0 }

// Index looks latent coefficients up by factor key. The key set is fixed at
// construction (the domain observed during fitting); rows with unknown keys
// evaluate to zero and are flagged by InvalidPositions.
type Index struct {
	levels []string
	index  map[string]int
}

// NewIndex creates an Index mapper over the given ordered key set.
func NewIndex(levels []string) *Index {
	idx := make(map[string]int, len(levels))
	for i, l := range levels {
		idx[l] = i
	}
	return &Index{levels: append([]string(nil), levels...), index: idx}
}

// Levels returns the ordered key set. The returned slice is a copy.
func (m *Index) Levels() []string {
	return append([]string(nil), m.levels...)
}

// Eval implements Mapper.
func (m *Index) Eval(in Input, state []float64) ([]float64, error) {
	keys, err := factorMain(in)
	if err != nil {
		return nil, err
	}
	if len(state) != len(m.levels) {
		return nil, fmt.Errorf("index mapper needs a length-%d state, got %d", len(m.levels), len(state))
	}
	out := make([]float64, len(keys))
	for i, k := range keys {
		if j, ok := m.index[k]; ok {
			out[i] = state[j]
		}
		// Unknown keys stay zero; the engine substitutes deviates there.
	}
	return out, nil
}

// Linear implements Mapper.
func (m *Index) Linear() bool { return true }

// OutputDim implements Mapper.
func (m *Index) OutputDim() int { return len(m.levels) }

// InvalidPositions implements InvalidReporter.
func (m *Index) InvalidPositions(in Input) []bool {
	keys, err := factorMain(in)
	if err != nil {
		return nil
	}
	mask := make([]bool, len(keys))
	for i, k := range keys {
		_, ok := m.index[k]
		mask[i] = !ok
	}
	return mask
}

// Transform is a post-stage applied to a mapped effect vector inside a Pipe.
type Transform interface {
	// Apply transforms the previous stage's output.
	Apply(in Input, prev []float64) ([]float64, error)

	// Linear reports whether the transform preserves affinity in the state.
	Linear() bool
}

// ScaleWeights multiplies the effect elementwise by the Input's scale
// weights. Identity when no scale column is present.
type ScaleWeights struct{}

// Apply implements Transform.
func (ScaleWeights) Apply(in Input, prev []float64) ([]float64, error) {
	if in.Scale == nil {
		return prev, nil
	}
	w, ok := in.Scale.(dataset.Numeric)
	if !ok {
		return nil, fmt.Errorf("scale weights must be numeric")
	}
	if len(w) != len(prev) {
		return nil, fmt.Errorf("scale weights length %d does not match effect length %d", len(w), len(prev))
	}
	out := make([]float64, len(prev))
	for i, v := range prev {
		out[i] = v * w[i]
	}
	return out, nil
}

// Linear implements Transform.
func (ScaleWeights) Linear() bool { return true }

// ExpLink exponentiates the mapped effect. This makes the enclosing pipe
// nonlinear in the latent state, taking the experimental passthrough path
// in Simplify.
type ExpLink struct{}

// Apply implements Transform.
func (ExpLink) Apply(in Input, prev []float64) ([]float64, error) {
	out := make([]float64, len(prev))
	for i, v := range prev {
		out[i] = math.Exp(v)
	}
	return out, nil
}

// Linear implements Transform.
func (ExpLink) Linear() bool { return false }

// Pipe chains a head mapper with transform stages. The head is the first
// sub-stage: domain queries (InvalidPositions) always resolve against it.
type Pipe struct {
	Head   Mapper
	Stages []Transform
}

// Eval implements Mapper.
func (p Pipe) Eval(in Input, state []float64) ([]float64, error) {
	out, err := p.Head.Eval(in, state)
	if err != nil {
		return nil, err
	}
	for _, st := range p.Stages {
		out, err = st.Apply(in, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Linear implements Mapper. A pipe is affine only if every stage is.
func (p Pipe) Linear() bool {
	if !p.Head.Linear() {
		return false
	}
	for _, st := range p.Stages {
		if !st.Linear() {
			return false
		}
	}
	return true
}

// OutputDim implements Mapper.
func (p Pipe) OutputDim() int { return p.Head.OutputDim() }

// InvalidPositions implements InvalidReporter by delegating to the head
// stage when it reports a domain.
func (p Pipe) InvalidPositions(in Input) []bool {
	if rep, ok := p.Head.(InvalidReporter); ok {
		return rep.InvalidPositions(in)
	}
	return nil
}
