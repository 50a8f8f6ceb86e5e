// Package condition evaluates the Condition sum type that gates whether a
// node runs once its predecessors have settled.
package condition

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/cases"

	"github.com/nexusdag/nexus/pkg/execctx"
	"github.com/nexusdag/nexus/pkg/types"
)

// Result is the outcome of evaluating a condition: whether the gated node
// should run, a human-readable reason suitable for logs and the history
// store, and the trail of sub-conditions visited along the way.
type Result struct {
	ShouldExecute bool
	Reason        string
	Evaluated     []string
}

// Evaluator evaluates Conditions against a shared execution context. It
// caches compiled expr-lang programs across calls, so create one
// Evaluator per engine and reuse it across an execution's nodes.
type Evaluator struct {
	mu      sync.Mutex
	cache   map[string]*vm.Program
	fold    cases.Caser
}

// NewEvaluator creates a condition evaluator with an empty program cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
		fold:  cases.Fold(),
	}
}

// Evaluate decides whether a node gated by cond should execute, given the
// live status of every node and the node's direct predecessors.
func (e *Evaluator) Evaluate(ec *execctx.Context, cond types.Condition, nodeStatuses map[string]types.ExecutionStatus, predecessorIDs []string) Result {
	var evaluated []string
	should, reason := e.evaluateInner(ec, cond, nodeStatuses, predecessorIDs, &evaluated)
	return Result{ShouldExecute: should, Reason: reason, Evaluated: evaluated}
}

func (e *Evaluator) evaluateInner(ec *execctx.Context, cond types.Condition, nodeStatuses map[string]types.ExecutionStatus, predecessorIDs []string, evaluated *[]string) (bool, string) {
	switch cond.Kind {
	case types.ConditionAlways:
		*evaluated = append(*evaluated, "Always")
		return true, "Always execute"

	case types.ConditionNever:
		*evaluated = append(*evaluated, "Never")
		return false, "Node is disabled"

	case types.ConditionOnSuccess:
		*evaluated = append(*evaluated, fmt.Sprintf("OnSuccess(%s)", cond.NodeID))
		status, ok := nodeStatuses[cond.NodeID]
		if !ok {
			return false, fmt.Sprintf("predecessor %s not found", cond.NodeID)
		}
		if status == types.StatusCompleted {
			return true, fmt.Sprintf("predecessor %s succeeded", cond.NodeID)
		}
		return false, fmt.Sprintf("predecessor %s has status %s", cond.NodeID, status)

	case types.ConditionOnFailure:
		*evaluated = append(*evaluated, fmt.Sprintf("OnFailure(%s)", cond.NodeID))
		status, ok := nodeStatuses[cond.NodeID]
		if !ok {
			return false, fmt.Sprintf("predecessor %s not found", cond.NodeID)
		}
		if status == types.StatusFailed {
			return true, fmt.Sprintf("predecessor %s failed", cond.NodeID)
		}
		return false, fmt.Sprintf("predecessor %s has status %s", cond.NodeID, status)

	case types.ConditionAllPredecessorsSucceeded:
		*evaluated = append(*evaluated, "AllPredecessorsSucceeded")
		var unfinished []string
		for _, id := range predecessorIDs {
			if nodeStatuses[id] != types.StatusCompleted {
				unfinished = append(unfinished, id)
			}
		}
		if len(unfinished) == 0 {
			return true, "all predecessors succeeded"
		}
		return false, fmt.Sprintf("predecessors not succeeded: %v", unfinished)

	case types.ConditionAnyPredecessorSucceeded:
		*evaluated = append(*evaluated, "AnyPredecessorSucceeded")
		for _, id := range predecessorIDs {
			if nodeStatuses[id] == types.StatusCompleted {
				return true, fmt.Sprintf("predecessor %s succeeded", id)
			}
		}
		return false, "no predecessors succeeded"

	case types.ConditionVariableEquals:
		*evaluated = append(*evaluated, fmt.Sprintf("VariableEquals(%s, %v)", cond.Variable, cond.Equals))
		v, ok := ec.GetVariable(cond.Variable)
		if !ok {
			return false, fmt.Sprintf("variable %s not set", cond.Variable)
		}
		if valuesEqual(v, cond.Equals) {
			return true, fmt.Sprintf("variable %s equals %v", cond.Variable, cond.Equals)
		}
		return false, fmt.Sprintf("variable %s is %v, expected %v", cond.Variable, v, cond.Equals)

	case types.ConditionVariableTruthy:
		*evaluated = append(*evaluated, fmt.Sprintf("VariableTruthy(%s)", cond.Variable))
		v, ok := ec.GetVariable(cond.Variable)
		if !ok {
			return false, fmt.Sprintf("variable %s not set", cond.Variable)
		}
		if isTruthy(v) {
			return true, fmt.Sprintf("variable %s is truthy", cond.Variable)
		}
		return false, fmt.Sprintf("variable %s is falsy", cond.Variable)

	case types.ConditionOutputContains:
		*evaluated = append(*evaluated, fmt.Sprintf("OutputContains(%s, %s)", cond.NodeID, cond.Substring))
		out, ok := ec.GetLatestOutput(cond.NodeID)
		if !ok {
			return false, fmt.Sprintf("no output from %s", cond.NodeID)
		}
		content := execctx.ToContextString(out.Data)
		contains := strings.Contains(content, cond.Substring)
		if !cond.CaseSensitive {
			contains = strings.Contains(e.fold.String(content), e.fold.String(cond.Substring))
		}
		if contains {
			return true, fmt.Sprintf("output from %s contains %q", cond.NodeID, cond.Substring)
		}
		return false, fmt.Sprintf("output from %s does not contain %q", cond.NodeID, cond.Substring)

	case types.ConditionOutputJsonPath:
		*evaluated = append(*evaluated, fmt.Sprintf("OutputJsonPath(%s, %s)", cond.NodeID, cond.Path))
		out, ok := ec.GetLatestOutput(cond.NodeID)
		if !ok {
			return false, fmt.Sprintf("no output from %s", cond.NodeID)
		}
		var parsed interface{}
		if err := json.Unmarshal([]byte(execctx.ToContextString(out.Data)), &parsed); err != nil {
			return false, fmt.Sprintf("output from %s is not valid JSON", cond.NodeID)
		}
		value, found := getJSONPath(parsed, cond.Path)
		if !found {
			return false, fmt.Sprintf("json path %s not found", cond.Path)
		}
		if cond.ExpectedValue == nil {
			return true, fmt.Sprintf("json path %s exists", cond.Path)
		}
		if valuesEqual(value, cond.ExpectedValue) {
			return true, fmt.Sprintf("json path %s equals expected value", cond.Path)
		}
		return false, fmt.Sprintf("json path %s is %v, expected %v", cond.Path, value, cond.ExpectedValue)

	case types.ConditionAnd:
		*evaluated = append(*evaluated, "And")
		for _, sub := range cond.Conditions {
			ok, reason := e.evaluateInner(ec, sub, nodeStatuses, predecessorIDs, evaluated)
			if !ok {
				return false, "AND failed: " + reason
			}
		}
		return true, "all AND conditions passed"

	case types.ConditionOr:
		*evaluated = append(*evaluated, "Or")
		for _, sub := range cond.Conditions {
			if ok, _ := e.evaluateInner(ec, sub, nodeStatuses, predecessorIDs, evaluated); ok {
				return true, "OR condition passed"
			}
		}
		return false, "no OR conditions passed"

	case types.ConditionNot:
		*evaluated = append(*evaluated, "Not")
		if cond.Inner == nil {
			return true, "NOT(nothing to negate)"
		}
		ok, reason := e.evaluateInner(ec, *cond.Inner, nodeStatuses, predecessorIDs, evaluated)
		return !ok, fmt.Sprintf("NOT(%s)", reason)

	case types.ConditionExpression:
		*evaluated = append(*evaluated, fmt.Sprintf("Expression(%s)", cond.Expression))
		result, err := e.evaluateExpression(ec, cond.Expression)
		if err != nil {
			return false, fmt.Sprintf("expression %q failed: %v", cond.Expression, err)
		}
		return result, fmt.Sprintf("expression %q evaluated to %v", cond.Expression, result)

	default:
		*evaluated = append(*evaluated, string(cond.Kind))
		return false, fmt.Sprintf("unknown condition kind: %s", cond.Kind)
	}
}

// evaluateExpression handles the three original micro-forms directly
// (literal booleans, "$var" truthiness, "==" / "!=" comparisons) and
// falls through to expr-lang/expr for anything richer — arithmetic,
// boolean operators, function calls.
func (e *Evaluator) evaluateExpression(ec *execctx.Context, raw string) (bool, error) {
	expression := strings.TrimSpace(raw)

	switch expression {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	if varName, ok := strings.CutPrefix(expression, "$"); ok && !strings.ContainsAny(varName, "=!") {
		v, _ := ec.GetVariable(varName)
		return isTruthy(v), nil
	}

	if left, right, ok := strings.Cut(expression, "=="); ok && !strings.Contains(expression, "!=") {
		return e.evaluateOperand(ec, left) == e.evaluateOperand(ec, right), nil
	}
	if left, right, ok := strings.Cut(expression, "!="); ok {
		return e.evaluateOperand(ec, left) != e.evaluateOperand(ec, right), nil
	}

	return e.evaluateExprLang(ec, expression)
}

func (e *Evaluator) evaluateOperand(ec *execctx.Context, operand string) string {
	operand = strings.TrimSpace(operand)
	if varName, ok := strings.CutPrefix(operand, "$"); ok {
		v, _ := ec.GetVariable(varName)
		return fmt.Sprintf("%v", v)
	}
	if len(operand) >= 2 {
		if (operand[0] == '"' && operand[len(operand)-1] == '"') || (operand[0] == '\'' && operand[len(operand)-1] == '\'') {
			return operand[1 : len(operand)-1]
		}
	}
	return operand
}

func (e *Evaluator) evaluateExprLang(ec *execctx.Context, expression string) (bool, error) {
	env := make(map[string]interface{})
	vars := ec.GetAllVariables()
	env["variables"] = vars
	for k, v := range vars {
		env[k] = v
	}

	e.mu.Lock()
	program, cached := e.cache[expression]
	e.mu.Unlock()

	if !cached {
		var err error
		program, err = expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		}
		e.mu.Lock()
		e.cache[expression] = program
		e.mu.Unlock()
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to a boolean, got %T", out)
	}
	return b, nil
}

// isTruthy applies JSON-value truthiness: nil and zero values are falsy,
// empty strings/slices/maps are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// valuesEqual compares two decoded-JSON-shaped values, treating numeric
// literals that unmarshal to different Go kinds (int vs float64) as
// equal when their magnitudes match.
func valuesEqual(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// getJSONPath walks a decoded JSON value by dot-separated path segments.
// Object segments are looked up by key; array segments must parse as a
// non-negative index.
func getJSONPath(data interface{}, path string) (interface{}, bool) {
	if path == "" {
		return data, true
	}
	current := data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}
