// Package mapper implements the covariate-to-latent-effect mappers and the
// simplification (linearization) step that prepares them for evaluation.
//
// A Mapper is an opaque capability: it can evaluate an Input against a
// latent coefficient vector, report whether it is affine in that vector,
// and report its latent output dimension. Mappers that look coefficients up
// by factor key additionally report which output positions fall outside the
// domain observed during fitting (the InvalidReporter interface); those
// positions are the hook for the IID deviate substitution in the engine.
//
// Simplify probes each mapper: affine mappers are replaced by a Linearized
// mapper whose design operator is evaluated once against the Input and is
// independent of any particular state value. Genuinely nonlinear mappers
// pass through unchanged; that path is experimental and emits a non-fatal
// warning.
package mapper
