// Package expr implements the restricted predictor-expression language.
//
// The language is deliberately small: arithmetic (+ - * / ^ and unary minus),
// 1-based indexing, and function application with optional named arguments,
// e.g.
//
//	intercept_eval() + x_eval(x, group = g)
//
// Expressions are parsed once into an AST and evaluated against an explicit
// Scope (a symbol table), never against the host language. Values form a
// closed set of tagged variants behind a sealed interface; evaluation
// switches exhaustively over them.
//
// Indexing is 1-based, following the statistical-modeling convention the
// predictor syntax comes from.
//
// The interpreter is synchronous and has no suspension points: a malformed
// expression aborts the whole evaluation with an EvaluationError.
package expr
