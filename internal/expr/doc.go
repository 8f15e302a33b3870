// Package expr implements the lexer, parser, and AST for the small
// expression language used in facet rule files.
//
// Expressions appear in two places:
//   - override sources: either a bare field name (a rename) or a computed
//     expression over source fields
//   - condition predicates: boolean expressions gating field population
//
// The language is deliberately small: field paths, literals, comparisons,
// boolean operators, null checks, and arithmetic. There are no function
// calls and no indexing. Operators follow Go spelling (==, !=, &&, ||, !).
//
// Null-safe member access follows reference semantics: a comparison whose
// path traverses a nil pointer evaluates to the null-propagated result
// rather than panicking, both in generated Go code and in Eval.
package expr
