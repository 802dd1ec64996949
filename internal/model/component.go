package model

import (
	"golang.org/x/text/unicode/norm"

	"github.com/lgmkit/lgmkit/internal/mapper"
)

// Type tags the role of a component in the linear predictor.
type Type string

const (
	// TypeFixed is an ordinary fixed effect with a latent coefficient.
	TypeFixed Type = "fixed"

	// TypeOffset enters the predictor directly, with no latent state.
	TypeOffset Type = "offset"

	// TypeConst is a constant-column effect (intercept-style); a latent
	// coefficient is used when present but is not required.
	TypeConst Type = "const"

	// TypeIID is an unstructured (exchangeable) effect indexed by factor
	// key; out-of-domain keys receive substituted deviates at evaluation.
	TypeIID Type = "iid"

	// TypeOther marks mappers outside the built-in taxonomy.
	TypeOther Type = "other"
)

// ParseType validates a component type tag.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeFixed, TypeOffset, TypeConst, TypeIID, TypeOther:
		return Type(s), nil
	default:
		return "", NewConfigurationError(ErrCodeBadType,
			"unknown component type %q: must be fixed, offset, const, iid or other", s)
	}
}

// StateFree reports whether the type evaluates without a latent state.
func (t Type) StateFree() bool {
	return t == TypeOffset || t == TypeConst
}

// Component is one named model effect. Immutable after model construction.
//
// The input-specification fields are expressions in the predictor language,
// evaluated against the data frame to produce the component's raw Input.
// Group, Replicate and Scale may be empty; group and replicate default to
// constant-1 columns at evaluation time.
type Component struct {
	Label     string
	Type      Type
	Main      string
	Group     string
	Replicate string
	Scale     string
	Mapper    mapper.Mapper
}

// ComponentList is the ordered, label-unique component collection. Its
// order is the canonical ordering for all downstream operations.
type ComponentList struct {
	comps  []Component
	byName map[string]int
}

// NewComponentList builds a list, normalizing labels to NFC and rejecting
// duplicates and unknown type tags.
func NewComponentList(comps ...Component) (*ComponentList, error) {
	l := &ComponentList{byName: make(map[string]int, len(comps))}
	for _, c := range comps {
		c.Label = norm.NFC.String(c.Label)
		if c.Label == "" {
			return nil, NewConfigurationError(ErrCodeUnknownLabel, "component label must not be empty")
		}
		if _, err := ParseType(string(c.Type)); err != nil {
			return nil, err
		}
		if _, dup := l.byName[c.Label]; dup {
			return nil, &ConfigurationError{
				Code:    ErrCodeDuplicateLabel,
				Message: "duplicate component label",
				Label:   c.Label,
			}
		}
		l.byName[c.Label] = len(l.comps)
		l.comps = append(l.comps, c)
	}
	return l, nil
}

// Len reports the number of components.
func (l *ComponentList) Len() int { return len(l.comps) }

// Labels returns the labels in canonical order. The returned slice is a copy.
func (l *ComponentList) Labels() []string {
	out := make([]string, len(l.comps))
	for i, c := range l.comps {
		out[i] = c.Label
	}
	return out
}

// Get returns the component with the given label.
func (l *ComponentList) Get(label string) (Component, bool) {
	i, ok := l.byName[norm.NFC.String(label)]
	if !ok {
		return Component{}, false
	}
	return l.comps[i], true
}

// All returns the components in canonical order. The returned slice is a copy.
func (l *ComponentList) All() []Component {
	out := make([]Component, len(l.comps))
	copy(out, l.comps)
	return out
}
