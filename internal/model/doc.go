// Package model defines the core data model of the evaluation engine:
// components, the ordered component list, likelihoods and the model
// container that aggregates them into a joint formula for the external
// solver.
//
// A component is a named model effect: a label, input-specification
// expressions (main, group, replicate, optional scale) evaluable against a
// data frame, a mapper capability, and a type tag. Components are immutable
// after model construction and the component list order is the canonical
// ordering for every downstream operation - caller-supplied include lists
// never reorder anything.
//
// Component labels are NFC-normalized at construction so that visually
// identical labels cannot coexist in one list.
package model
