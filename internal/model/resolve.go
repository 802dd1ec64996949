package model

// Resolve computes the ordered label subset selected by include/exclude
// filters.
//
// A nil include means "all labels"; a nil exclude means "none". The result
// preserves the canonical component order - never the order of the
// caller-supplied lists - and exclude always wins over include for a label
// present in both. Unknown labels in either filter are a configuration
// error.
func (l *ComponentList) Resolve(include, exclude []string) ([]string, error) {
	if err := l.checkKnown(include); err != nil {
		return nil, err
	}
	if err := l.checkKnown(exclude); err != nil {
		return nil, err
	}

	included := func(label string) bool {
		if include == nil {
			return true
		}
		for _, in := range include {
			if in == label {
				return true
			}
		}
		return false
	}
	excluded := func(label string) bool {
		for _, ex := range exclude {
			if ex == label {
				return true
			}
		}
		return false
	}

	out := make([]string, 0, len(l.comps))
	for _, c := range l.comps {
		if included(c.Label) && !excluded(c.Label) {
			out = append(out, c.Label)
		}
	}
	return out, nil
}

func (l *ComponentList) checkKnown(labels []string) error {
	for _, label := range labels {
		if _, ok := l.byName[label]; !ok {
			return &ConfigurationError{
				Code:    ErrCodeUnknownLabel,
				Message: "filter references a label not present in the model",
				Label:   label,
			}
		}
	}
	return nil
}
