// Package condition evaluates the Condition sum type (pkg/types) that
// gates node execution: whether a node runs once its predecessors have
// settled, based on prior node status, shared variables, predecessor
// output content, or an arbitrary expression.
//
// # Expression Fallback
//
// The Expression variant evaluates its three original micro-forms
// directly — the literal "true"/"false", "$var" truthiness, and "=="/"!="
// comparisons — for speed and source fidelity, and falls through to
// github.com/expr-lang/expr for anything richer (boolean operators,
// arithmetic, function calls), compiled against an environment built
// from the execution's shared variables.
//
// # Case Folding
//
// OutputContains's case-insensitive matching uses golang.org/x/text/cases
// rather than strings.ToLower, so folding is Unicode-correct rather than
// ASCII-only.
package condition
