// Package dataset provides the columnar data frame consumed by evaluation.
//
// A Frame is an ordered collection of named columns. Columns are a closed
// set of tagged variants (numeric, factor) behind a sealed interface so that
// every consumer can switch exhaustively over the column kind. Frames are
// immutable after construction; evaluation never mutates data in place.
//
// Frames can be built programmatically or loaded from YAML documents of the
// form:
//
//	columns:
//	  x: [1, 2, 3]
//	  region: [north, south, north]
//
// Numeric columns accept integers and floats; anything else is a factor.
package dataset
