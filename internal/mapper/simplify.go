package mapper

import (
	"fmt"
	"log/slog"
)

// Linearized is the affine form of a mapper, evaluated once against a fixed
// Input: effect = offset + Σ_j state[j] * design[j]. The design operator is
// probed by basis evaluation, so no reference (Taylor) state is involved -
// affinity makes the operator exact for every state.
type Linearized struct {
	orig   Mapper
	design [][]float64 // One column per latent coefficient, each Input-length.
	offset []float64
}

// LinearizeAffine builds the Linearized form of an affine mapper for the
// given Input. The mapper must report Linear() == true.
func LinearizeAffine(m Mapper, in Input) (*Linearized, error) {
	if !m.Linear() {
		return nil, fmt.Errorf("cannot linearize a nonlinear mapper without a reference state")
	}
	dim := m.OutputDim()

	zero := make([]float64, dim)
	offset, err := m.Eval(in, zero)
	if err != nil {
		return nil, fmt.Errorf("probe offset: %w", err)
	}

	design := make([][]float64, dim)
	basis := make([]float64, dim)
	for j := 0; j < dim; j++ {
		basis[j] = 1
		col, err := m.Eval(in, basis)
		basis[j] = 0
		if err != nil {
			return nil, fmt.Errorf("probe basis %d: %w", j, err)
		}
		for i := range col {
			col[i] -= offset[i]
		}
		design[j] = col
	}

	return &Linearized{orig: m, design: design, offset: offset}, nil
}

// Eval implements Mapper. The design operator was built for a specific
// Input; the in argument only participates through post-stages of the
// original mapper and is otherwise ignored.
func (l *Linearized) Eval(in Input, state []float64) ([]float64, error) {
	if len(state) != len(l.design) {
		return nil, fmt.Errorf("linearized mapper needs a length-%d state, got %d", len(l.design), len(state))
	}
	out := make([]float64, len(l.offset))
	copy(out, l.offset)
	for j, col := range l.design {
		if state[j] == 0 {
			continue
		}
		for i, v := range col {
			out[i] += state[j] * v
		}
	}
	return out, nil
}

// Linear implements Mapper.
func (l *Linearized) Linear() bool { return true }

// OutputDim implements Mapper.
func (l *Linearized) OutputDim() int { return len(l.design) }

// InvalidPositions delegates domain queries to the original mapper.
func (l *Linearized) InvalidPositions(in Input) []bool {
	if rep, ok := l.orig.(InvalidReporter); ok {
		return rep.InvalidPositions(in)
	}
	return nil
}

// Original returns the mapper the linearization was built from.
func (l *Linearized) Original() Mapper { return l.orig }

// Item pairs a component label with its mapper and evaluated Input, in
// canonical component order.
type Item struct {
	Label  string
	Mapper Mapper
	Input  Input
}

// Simplified is the per-component result of Simplify, in the same order as
// the input items regardless of which internal path built each entry.
type Simplified struct {
	Label  string
	Mapper Mapper
}

// Warning records a non-fatal condition encountered during simplification.
type Warning struct {
	Label   string
	Message string
}

// Simplify selects the evaluation form of every mapper: affine mappers are
// linearized against their Input, nonlinear mappers pass through unchanged.
// The nonlinear path is experimental; it is logged and reported as a
// warning but never fails the call.
func Simplify(items []Item, logger *slog.Logger) ([]Simplified, []Warning, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Simplified, 0, len(items))
	var warnings []Warning
	for _, item := range items {
		if item.Mapper.Linear() {
			lin, err := LinearizeAffine(item.Mapper, item.Input)
			if err != nil {
				return nil, nil, fmt.Errorf("linearize component %q: %w", item.Label, err)
			}
			out = append(out, Simplified{Label: item.Label, Mapper: lin})
			continue
		}

		logger.Warn("nonlinear mapper passed through unsimplified (experimental)",
			"component", item.Label)
		warnings = append(warnings, Warning{
			Label:   item.Label,
			Message: "nonlinear mapper evaluated without linearization (experimental)",
		})
		out = append(out, Simplified{Label: item.Label, Mapper: item.Mapper})
	}
	return out, warnings, nil
}
