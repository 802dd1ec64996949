// Package compiler turns declarative CUE model definitions into model
// values ready for evaluation.
//
// A model definition is a CUE file of the form:
//
//	model: {
//		components: [
//			{label: "intercept", type: "const", main: "1"},
//			{label: "x", type: "fixed", main: "x"},
//			{label: "u", type: "iid", main: "region", levels: ["north", "south"]},
//		]
//		likelihoods: [
//			{family: "gaussian", response: "y", uses: ["intercept", "x"]},
//		]
//	}
//
// Components are declared as a list so the declaration order becomes the
// canonical component order. The mapper for each component defaults from
// its type tag (fixed: linear covariate, const: constant column, offset:
// passthrough, iid: index over levels); a "scale" expression wraps the
// mapper in a weighting stage and link: "exp" appends the experimental
// nonlinear link.
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler
