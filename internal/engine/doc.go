// Package engine implements component-effect and predictor evaluation.
//
// The engine turns a declarative model (components with mappers) plus one
// or more posterior latent states into concrete numbers: per-component
// effect contributions, and user-defined predictor expressions built from
// those contributions.
//
// ARCHITECTURE:
//
// Single-Threaded Per-State Loop:
// The predictor evaluator processes states strictly in sequence, one at a
// time, in a single goroutine. This ensures:
// - Reproducible IID deviate substitution (cache resets happen in state order)
// - Predictable scope rebinding between states
// - Simple reasoning about which state each sub-expression saw
//
// Evaluation Flow:
// 1. Evaluator construction resolves inclusion filters, evaluates component
//    input specifications against the data frame, and simplifies mappers
//    (affine mappers are linearized once against their Input).
// 2. Effect evaluation applies the simplified mappers per state; states
//    never interact.
// 3. Predictor evaluation builds a per-call scope (data columns, ".data.",
//    "<label>_latent" vectors, "<label>_eval" closures) and runs the user
//    expression once per state.
//
// The per-state loop must not be parallelized: correctness of the IID
// deviate cache depends on it being cleared exactly at each state-index
// advance, in state order. The evaluation scope and IID cache are exclusive
// to one predictor call and are discarded on return.
//
// The only non-determinism is the IID deviate draw, sourced from the
// process-wide random generator unless a nonzero seed selects a private,
// single-threaded source.
package engine
