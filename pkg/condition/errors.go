package condition

import "errors"

// ErrInvalidExpression is returned when an Expression condition's syntax
// cannot be compiled by either the micro-form parser or expr-lang/expr.
var ErrInvalidExpression = errors.New("condition: invalid expression")
