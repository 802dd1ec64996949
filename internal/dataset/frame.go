package dataset

import (
	"fmt"
)

// Column is a sealed interface over the supported column variants.
// Only Numeric and Factor implement it.
type Column interface {
	column() // Sealed - only dataset types implement it.

	// Len reports the number of rows in the column.
	Len() int
}

// Numeric is a column of float64 values.
type Numeric []float64

func (Numeric) column() {}

// Len reports the number of rows.
func (c Numeric) Len() int { return len(c) }

// Factor is a column of string keys (categorical data).
// Factor keys are the lookup domain for index-style mappers.
type Factor []string

func (Factor) column() {}

// Len reports the number of rows.
func (c Factor) Len() int { return len(c) }

// Const builds a numeric column of n copies of v.
// Used for the default group/replicate bindings.
func Const(v float64, n int) Numeric {
	col := make(Numeric, n)
	for i := range col {
		col[i] = v
	}
	return col
}

// Frame is an ordered, name-unique collection of equal-length columns.
type Frame struct {
	names []string
	cols  map[string]Column
	nrows int
}

// NewFrame builds a Frame from columns in the given insertion order.
// All columns must have the same length and unique names.
func NewFrame(pairs ...NamedColumn) (*Frame, error) {
	f := &Frame{cols: make(map[string]Column, len(pairs)), nrows: -1}
	for _, p := range pairs {
		if p.Name == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if _, dup := f.cols[p.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", p.Name)
		}
		if f.nrows >= 0 && p.Col.Len() != f.nrows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", p.Name, p.Col.Len(), f.nrows)
		}
		f.nrows = p.Col.Len()
		f.names = append(f.names, p.Name)
		f.cols[p.Name] = p.Col
	}
	if f.nrows < 0 {
		f.nrows = 0
	}
	return f, nil
}

// NamedColumn pairs a column with its name for typed Frame construction.
type NamedColumn struct {
	Name string
	Col  Column
}

// Col is a shorthand constructor for NamedColumn.
func Col(name string, c Column) NamedColumn {
	return NamedColumn{Name: name, Col: c}
}

// NRows reports the common row count of all columns.
func (f *Frame) NRows() int { return f.nrows }

// Names returns column names in insertion order.
// The returned slice is a copy.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Column returns the named column, or nil if absent.
func (f *Frame) Column(name string) Column {
	return f.cols[name]
}

// Has reports whether the frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}
