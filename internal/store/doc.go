// Package store provides the SQLite-backed fitted result.
//
// An external solver persists its fitted summaries and posterior draws into
// a result database; this package opens that database and exposes it
// through the state.Result interface. The schema is applied idempotently on
// open, so the same package serves solvers writing results and engines
// reading them.
//
// Layout: the summaries table holds one row per (property, quantile, scale,
// label, coefficient index); the draws table holds one row per (draw,
// label, coefficient index). Hyperparameters are stored under their own
// labels (e.g. "Precision_for_u") alongside component labels.
package store
