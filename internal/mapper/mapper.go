package mapper

import (
	"fmt"

	"github.com/lgmkit/lgmkit/internal/dataset"
)

// Input carries the evaluated raw values for one component: the main
// covariate, optional group and replicate indices, and optional scale
// weights. Inputs are ephemeral and recomputed per evaluation call.
type Input struct {
	Main      dataset.Column
	Group     dataset.Column
	Replicate dataset.Column
	Scale     dataset.Column
}

// Len reports the number of evaluation points (rows of Main).
func (in Input) Len() int {
	if in.Main == nil {
		return 0
	}
	return in.Main.Len()
}

// Mapper is the opaque capability transforming an Input plus a latent
// coefficient vector into a numeric effect vector.
type Mapper interface {
	// Eval evaluates the mapper, producing one value per Input row.
	Eval(in Input, state []float64) ([]float64, error)

	// Linear reports whether the mapper is affine in the latent state.
	Linear() bool

	// OutputDim reports the length of the latent coefficient vector the
	// mapper consumes.
	OutputDim() int
}

// InvalidReporter is implemented by mappers whose domain is a fixed key set.
// InvalidPositions returns one flag per Input row; true marks a main key
// outside the domain observed during fitting.
type InvalidReporter interface {
	InvalidPositions(in Input) []bool
}

// numericMain extracts Main as a numeric slice.
func numericMain(in Input) ([]float64, error) {
	col, ok := in.Main.(dataset.Numeric)
	if !ok {
		return nil, fmt.Errorf("mapper needs a numeric main input")
	}
	return col, nil
}

// factorMain extracts Main as factor keys. Numeric mains are stringified so
// integer-coded factors keep working.
func factorMain(in Input) ([]string, error) {
	switch col := in.Main.(type) {
	case dataset.Factor:
		return col, nil
	case dataset.Numeric:
		keys := make([]string, len(col))
		for i, v := range col {
			keys[i] = fmt.Sprintf("%g", v)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("mapper needs a main input")
	}
}
