package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/lgmkit/lgmkit/internal/mapper"
	"github.com/lgmkit/lgmkit/internal/model"
)

// CompileModel parses a CUE value into a model.
//
// The value should contain the model struct, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: { components: [...] }`)
//	m, err := CompileModel(v)
func CompileModel(v cue.Value) (*model.Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	mv := v.LookupPath(cue.ParsePath("model"))
	if !mv.Exists() {
		return nil, &CompileError{Field: "model", Message: "model struct is required"}
	}

	comps, err := compileComponents(mv)
	if err != nil {
		return nil, err
	}
	list, err := model.NewComponentList(comps...)
	if err != nil {
		return nil, err
	}

	liks, err := compileLikelihoods(mv)
	if err != nil {
		return nil, err
	}
	return model.New(list, liks...)
}

func compileComponents(mv cue.Value) ([]model.Component, error) {
	compsVal := mv.LookupPath(cue.ParsePath("components"))
	if !compsVal.Exists() {
		return nil, &CompileError{
			Field:   "components",
			Message: "at least one component is required",
			Pos:     mv.Pos(),
		}
	}

	iter, err := compsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var comps []model.Component
	for iter.Next() {
		c, err := compileComponent(iter.Value())
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	if len(comps) == 0 {
		return nil, &CompileError{
			Field:   "components",
			Message: "at least one component is required",
			Pos:     compsVal.Pos(),
		}
	}
	return comps, nil
}

func compileComponent(v cue.Value) (model.Component, error) {
	var c model.Component

	label, err := requiredString(v, "label")
	if err != nil {
		return c, err
	}
	c.Label = label

	typeTag, err := requiredString(v, "type")
	if err != nil {
		return c, err
	}
	c.Type, err = model.ParseType(typeTag)
	if err != nil {
		return c, &CompileError{Field: "type", Message: err.Error(), Pos: v.Pos()}
	}

	if c.Main, err = requiredString(v, "main"); err != nil {
		return c, err
	}
	if c.Group, err = optionalString(v, "group"); err != nil {
		return c, err
	}
	if c.Replicate, err = optionalString(v, "replicate"); err != nil {
		return c, err
	}
	if c.Scale, err = optionalString(v, "scale"); err != nil {
		return c, err
	}

	c.Mapper, err = compileMapper(v, c)
	return c, err
}

// compileMapper builds the component's mapper. The head defaults from the
// type tag; an explicit "mapper" field overrides it. A scale expression
// adds the weighting stage, link: "exp" the experimental nonlinear link.
func compileMapper(v cue.Value, c model.Component) (mapper.Mapper, error) {
	kind, err := optionalString(v, "mapper")
	if err != nil {
		return nil, err
	}
	if kind == "" {
		switch c.Type {
		case model.TypeFixed, model.TypeOther:
			kind = "linear"
		case model.TypeConst:
			kind = "const"
		case model.TypeOffset:
			kind = "offset"
		case model.TypeIID:
			kind = "index"
		}
	}

	var head mapper.Mapper
	switch kind {
	case "linear":
		head = mapper.LinearCov{}
	case "const":
		head = mapper.Const{}
	case "offset":
		head = mapper.Offset{}
	case "index":
		levels, err := stringList(v, "levels")
		if err != nil {
			return nil, err
		}
		if len(levels) == 0 {
			return nil, &CompileError{
				Field:   "levels",
				Message: fmt.Sprintf("component %q needs levels for an index mapper", c.Label),
				Pos:     v.Pos(),
			}
		}
		head = mapper.NewIndex(levels)
	default:
		return nil, &CompileError{
			Field:   "mapper",
			Message: fmt.Sprintf("unknown mapper kind %q", kind),
			Pos:     v.Pos(),
		}
	}

	link, err := optionalString(v, "link")
	if err != nil {
		return nil, err
	}

	var stages []mapper.Transform
	if c.Scale != "" {
		stages = append(stages, mapper.ScaleWeights{})
	}
	switch link {
	case "":
	case "exp":
		stages = append(stages, mapper.ExpLink{})
	default:
		return nil, &CompileError{
			Field:   "link",
			Message: fmt.Sprintf("unknown link %q", link),
			Pos:     v.Pos(),
		}
	}

	if len(stages) == 0 {
		return head, nil
	}
	return mapper.Pipe{Head: head, Stages: stages}, nil
}

func compileLikelihoods(mv cue.Value) ([]model.Likelihood, error) {
	liksVal := mv.LookupPath(cue.ParsePath("likelihoods"))
	if !liksVal.Exists() {
		return nil, nil
	}

	iter, err := liksVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var liks []model.Likelihood
	for iter.Next() {
		v := iter.Value()
		var lk model.Likelihood
		if lk.Family, err = requiredString(v, "family"); err != nil {
			return nil, err
		}
		if lk.Response, err = optionalString(v, "response"); err != nil {
			return nil, err
		}
		if lk.Uses, err = stringList(v, "uses"); err != nil {
			return nil, err
		}
		liks = append(liks, lk)
	}
	return liks, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// stringList reads an optional list of strings; a missing field yields nil.
func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError is a structured compile failure with CUE position info.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors.
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return firstErr
}
