package model

import (
	"strings"
)

// Likelihood describes one observation model attached to the container.
// Uses lists the component labels the likelihood's predictor needs; nil
// means every component.
type Likelihood struct {
	Family   string
	Response string
	Uses     []string
}

// LinearFamilies are the observation families whose predictor enters the
// solver linearly (identity link).
var LinearFamilies = map[string]bool{
	"gaussian": true,
}

// Linear reports whether the likelihood's predictor is linear in the
// latent state.
func (lk Likelihood) Linear() bool {
	return LinearFamilies[lk.Family]
}

// Model aggregates the component list and the attached likelihoods.
type Model struct {
	Components  *ComponentList
	Likelihoods []Likelihood
}

// New builds a model container.
func New(comps *ComponentList, liks ...Likelihood) (*Model, error) {
	for _, lk := range liks {
		if err := comps.checkKnown(lk.Uses); err != nil {
			return nil, err
		}
	}
	return &Model{Components: comps, Likelihoods: liks}, nil
}

// Formula is the joint formula handed to the external solver: an
// intercept-free base plus one term per solver-visible component, with
// offset/const components folded into the predictor when every attached
// likelihood is linear.
type Formula struct {
	Terms   []string // Solver-visible component terms, canonical order.
	Offsets []string // Components folded directly into the predictor.
}

// String renders the formula in conventional notation.
func (f Formula) String() string {
	var b strings.Builder
	b.WriteString("~ -1")
	for _, t := range f.Terms {
		b.WriteString(" + ")
		b.WriteString(t)
	}
	for _, o := range f.Offsets {
		b.WriteString(" + offset(")
		b.WriteString(o)
		b.WriteString(")")
	}
	return b.String()
}

// Formula builds the joint formula across the union of components required
// by every attached likelihood, in canonical component order. With no
// likelihoods attached the formula covers all components and nothing is
// folded: folding is an optimization that only applies once every attached
// likelihood is known to be linear.
func (m *Model) Formula() Formula {
	needed := m.requiredLabels()

	allLinear := len(m.Likelihoods) > 0
	for _, lk := range m.Likelihoods {
		if !lk.Linear() {
			allLinear = false
			break
		}
	}

	var f Formula
	for _, c := range m.Components.All() {
		if !needed[c.Label] {
			continue
		}
		if allLinear && (c.Type == TypeOffset || c.Type == TypeConst) {
			f.Offsets = append(f.Offsets, c.Label)
			continue
		}
		f.Terms = append(f.Terms, c.Label)
	}
	return f
}

// requiredLabels computes the union of component labels used by the
// attached likelihoods. No likelihoods, or any likelihood with a nil Uses,
// means every component is required.
func (m *Model) requiredLabels() map[string]bool {
	needed := make(map[string]bool, m.Components.Len())
	if len(m.Likelihoods) == 0 {
		for _, label := range m.Components.Labels() {
			needed[label] = true
		}
		return needed
	}
	for _, lk := range m.Likelihoods {
		if lk.Uses == nil {
			for _, label := range m.Components.Labels() {
				needed[label] = true
			}
			return needed
		}
		for _, label := range lk.Uses {
			needed[label] = true
		}
	}
	return needed
}
