package graphdb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// maxVarLengthHops is the hard cap on variable-length path traversal
// depth (spec §4.5.1): a BFS never explores a path longer than this.
// The parser gives a bare `*` this value as its upper bound and
// rejects `*n..` without an upper bound or any bound above it.
const maxVarLengthHops = 15

// Binding is one row of variable bindings produced while matching a
// pattern: variable name -> bound Value (nodes/edges are represented
// as maps via nodeToValue/edgeToValue so expressions can read
// properties uniformly).
type Binding map[string]Value

// Env is the evaluation context passed to Eval: the current row's
// bindings plus query parameters.
type Env struct {
	Row    Binding
	Params map[string]Value
}

// nodeToValue represents a bound node as a map Value carrying its id,
// labels, and properties, so PropertyExpr access (n.key) and display
// both flow through the same Value machinery.
func nodeToValue(n Node) Value {
	m := make(map[string]Value, len(n.Properties)+2)
	for k, v := range n.Properties {
		m[k] = v
	}
	labels := make([]Value, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = StringValue(l)
	}
	m["__id"] = IntValue(n.ID)
	m["__labels"] = ListValue(labels)
	return MapValue(m)
}

func edgeToValue(e Edge) Value {
	m := make(map[string]Value, len(e.Properties)+3)
	for k, v := range e.Properties {
		m[k] = v
	}
	m["__id"] = IntValue(e.ID)
	m["__type"] = StringValue(e.Type)
	m["__source"] = IntValue(e.Source)
	m["__target"] = IntValue(e.Target)
	return MapValue(m)
}

// Eval evaluates an expression tree against an environment, following
// spec §4.3's operator/coercion/null-propagation rules.
func Eval(e Expr, env Env) (Value, error) {
	switch n := e.(type) {
	case LiteralExpr:
		return n.Value, nil
	case ParamExpr:
		if v, ok := env.Params[n.Name]; ok {
			return v, nil
		}
		return Null, nil
	case VariableExpr:
		if v, ok := env.Row[n.Name]; ok {
			return v, nil
		}
		return Null, fmt.Errorf("%w: %s", ErrUnboundVariable, n.Name)
	case PropertyExpr:
		base, ok := env.Row[n.Variable]
		if !ok {
			return Null, fmt.Errorf("%w: %s", ErrUnboundVariable, n.Variable)
		}
		if base.Kind != KindMap {
			return Null, nil
		}
		if v, ok := base.Map[n.Key]; ok {
			return v, nil
		}
		return Null, nil
	case ListExpr:
		vals := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := Eval(el, env)
			if err != nil {
				return Null, err
			}
			vals[i] = v
		}
		return ListValue(vals), nil
	case UnaryExpr:
		return evalUnary(n, env)
	case BinaryExpr:
		return evalBinary(n, env)
	case FunctionCallExpr:
		return evalScalarFunction(n, env)
	default:
		return Null, fmt.Errorf("%w: unrecognized expression node", ErrArgumentError)
	}
}

func evalUnary(n UnaryExpr, env Env) (Value, error) {
	v, err := Eval(n.Operand, env)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case "NOT":
		if v.IsNull() {
			return Null, nil
		}
		return BoolValue(!v.Truthy()), nil
	case "-":
		if v.IsNull() {
			return Null, nil
		}
		switch v.Kind {
		case KindInt:
			return IntValue(-v.Int), nil
		case KindFloat:
			return FloatValue(-v.Float), nil
		default:
			return Null, fmt.Errorf("%w: unary - on %s", ErrArgumentError, v.Kind)
		}
	default:
		return Null, fmt.Errorf("%w: unknown unary operator %s", ErrArgumentError, n.Op)
	}
}

// evalBinary implements AND/OR's three-valued logic and null
// propagation for every other operator (spec §4.3: any operator with
// a null operand, other than AND/OR's short circuits, yields null).
func evalBinary(n BinaryExpr, env Env) (Value, error) {
	switch n.Op {
	case "AND":
		return evalAnd(n, env)
	case "OR":
		return evalOr(n, env)
	}

	left, err := Eval(n.Left, env)
	if err != nil {
		return Null, err
	}
	right, err := Eval(n.Right, env)
	if err != nil {
		return Null, err
	}

	switch n.Op {
	case "=":
		if left.IsNull() || right.IsNull() {
			return Null, nil
		}
		return BoolValue(left.Equal(right)), nil
	case "<>":
		if left.IsNull() || right.IsNull() {
			return Null, nil
		}
		return BoolValue(!left.Equal(right)), nil
	case "<", "<=", ">", ">=":
		if left.IsNull() || right.IsNull() {
			return Null, nil
		}
		if !comparable(left, right) {
			return BoolValue(false), nil
		}
		cmp := left.Compare(right)
		switch n.Op {
		case "<":
			return BoolValue(cmp < 0), nil
		case "<=":
			return BoolValue(cmp <= 0), nil
		case ">":
			return BoolValue(cmp > 0), nil
		default:
			return BoolValue(cmp >= 0), nil
		}
	case "+", "-", "*", "/", "%":
		return evalArithmetic(n.Op, left, right)
	case "CONTAINS", "STARTS WITH", "ENDS WITH", "=~":
		return evalStringOp(n.Op, left, right)
	default:
		return Null, fmt.Errorf("%w: unknown binary operator %s", ErrArgumentError, n.Op)
	}
}

func comparable(l, r Value) bool {
	if l.isNumeric() && r.isNumeric() {
		return true
	}
	return l.Kind == r.Kind
}

func evalAnd(n BinaryExpr, env Env) (Value, error) {
	left, err := Eval(n.Left, env)
	if err != nil {
		return Null, err
	}
	if !left.IsNull() && !left.Truthy() {
		return BoolValue(false), nil
	}
	right, err := Eval(n.Right, env)
	if err != nil {
		return Null, err
	}
	if !right.IsNull() && !right.Truthy() {
		return BoolValue(false), nil
	}
	if left.IsNull() || right.IsNull() {
		return Null, nil
	}
	return BoolValue(true), nil
}

func evalOr(n BinaryExpr, env Env) (Value, error) {
	left, err := Eval(n.Left, env)
	if err != nil {
		return Null, err
	}
	if !left.IsNull() && left.Truthy() {
		return BoolValue(true), nil
	}
	right, err := Eval(n.Right, env)
	if err != nil {
		return Null, err
	}
	if !right.IsNull() && right.Truthy() {
		return BoolValue(true), nil
	}
	if left.IsNull() || right.IsNull() {
		return Null, nil
	}
	return BoolValue(false), nil
}

func evalArithmetic(op string, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		return Null, nil
	}
	if op == "+" && (left.Kind == KindString || right.Kind == KindString) {
		return StringValue(left.String() + right.String()), nil
	}
	if !left.isNumeric() || !right.isNumeric() {
		return Null, fmt.Errorf("%w: arithmetic on non-numeric %s/%s", ErrArgumentError, left.Kind, right.Kind)
	}
	if left.Kind == KindInt && right.Kind == KindInt {
		switch op {
		case "+":
			return IntValue(left.Int + right.Int), nil
		case "-":
			return IntValue(left.Int - right.Int), nil
		case "*":
			return IntValue(left.Int * right.Int), nil
		case "/":
			if right.Int == 0 {
				return Null, nil
			}
			return IntValue(left.Int / right.Int), nil
		case "%":
			if right.Int == 0 {
				return Null, nil
			}
			return IntValue(left.Int % right.Int), nil
		}
	}
	lf, rf := left.asFloat(), right.asFloat()
	switch op {
	case "+":
		return FloatValue(lf + rf), nil
	case "-":
		return FloatValue(lf - rf), nil
	case "*":
		return FloatValue(lf * rf), nil
	case "/":
		if rf == 0 {
			return Null, nil
		}
		return FloatValue(lf / rf), nil
	default:
		return Null, fmt.Errorf("%w: unsupported arithmetic operator %s", ErrArgumentError, op)
	}
}

// evalStringOp implements CONTAINS / STARTS WITH / ENDS WITH / =~.
// Regex matching is unanchored (substring search via regexp.MatchString,
// not a full-string match) per the resolved open question in DESIGN.md.
func evalStringOp(op string, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		return Null, nil
	}
	if left.Kind != KindString || right.Kind != KindString {
		return Null, fmt.Errorf("%w: %s requires string operands", ErrArgumentError, op)
	}
	switch op {
	case "CONTAINS":
		return BoolValue(strings.Contains(left.Str, right.Str)), nil
	case "STARTS WITH":
		return BoolValue(strings.HasPrefix(left.Str, right.Str)), nil
	case "ENDS WITH":
		return BoolValue(strings.HasSuffix(left.Str, right.Str)), nil
	case "=~":
		matched, err := regexp.MatchString(right.Str, left.Str)
		if err != nil {
			return BoolValue(false), nil
		}
		return BoolValue(matched), nil
	default:
		return Null, fmt.Errorf("%w: unknown string operator %s", ErrArgumentError, op)
	}
}

// evalScalarFunction dispatches the non-aggregate function set of
// spec §4.3. Aggregate functions are never called here directly; the
// executor extracts and evaluates them per-group before projection.
func evalScalarFunction(n FunctionCallExpr, env Env) (Value, error) {
	if isAggregateFunction(n.Name) {
		return Null, fmt.Errorf("%w: aggregate %s used outside grouped projection", ErrArgumentError, n.Name)
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return Null, err
		}
		args[i] = v
	}
	switch n.Name {
	case "UPPER":
		return stringFn1(args, strings.ToUpper)
	case "LOWER":
		return stringFn1(args, strings.ToLower)
	case "TRIM":
		return stringFn1(args, strings.TrimSpace)
	case "LTRIM":
		return stringFn1(args, func(s string) string { return strings.TrimLeft(s, " \t\n\r") })
	case "RTRIM":
		return stringFn1(args, func(s string) string { return strings.TrimRight(s, " \t\n\r") })
	case "REVERSE":
		return stringFn1(args, reverseString)
	case "LENGTH":
		return evalLength(args)
	case "SUBSTRING":
		return evalSubstring(args)
	case "REPLACE":
		return evalReplace(args)
	case "SPLIT":
		return evalSplit(args)
	default:
		return Null, fmt.Errorf("%w: %s", ErrUnknownFunction, n.Name)
	}
}

func stringFn1(args []Value, fn func(string) string) (Value, error) {
	if len(args) != 1 {
		return Null, fmt.Errorf("%w: expected 1 argument", ErrArgumentError)
	}
	if args[0].IsNull() {
		return Null, nil
	}
	if args[0].Kind != KindString {
		return Null, fmt.Errorf("%w: expected string argument", ErrArgumentError)
	}
	return StringValue(fn(args[0].Str)), nil
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func evalLength(args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, fmt.Errorf("%w: expected 1 argument", ErrArgumentError)
	}
	v := args[0]
	if v.IsNull() {
		return Null, nil
	}
	switch v.Kind {
	case KindString:
		return IntValue(int64(len([]rune(v.Str)))), nil
	case KindList:
		return IntValue(int64(len(v.List))), nil
	default:
		return Null, fmt.Errorf("%w: LENGTH expects string or list", ErrArgumentError)
	}
}

func evalSubstring(args []Value) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return Null, fmt.Errorf("%w: expected 2 or 3 arguments", ErrArgumentError)
	}
	if args[0].IsNull() || args[0].Kind != KindString || !args[1].isNumeric() {
		return Null, fmt.Errorf("%w: invalid SUBSTRING arguments", ErrArgumentError)
	}
	r := []rune(args[0].Str)
	start := int(args[1].asFloat())
	if start < 0 {
		start = 0
	}
	if start > len(r) {
		start = len(r)
	}
	end := len(r)
	if len(args) == 3 {
		if !args[2].isNumeric() {
			return Null, fmt.Errorf("%w: invalid SUBSTRING length", ErrArgumentError)
		}
		length := int(args[2].asFloat())
		if start+length < end {
			end = start + length
		}
	}
	return StringValue(string(r[start:end])), nil
}

func evalReplace(args []Value) (Value, error) {
	if len(args) != 3 {
		return Null, fmt.Errorf("%w: expected 3 arguments", ErrArgumentError)
	}
	for _, a := range args {
		if a.Kind != KindString {
			return Null, fmt.Errorf("%w: REPLACE expects string arguments", ErrArgumentError)
		}
	}
	return StringValue(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str)), nil
}

func evalSplit(args []Value) (Value, error) {
	if len(args) != 2 {
		return Null, fmt.Errorf("%w: expected 2 arguments", ErrArgumentError)
	}
	for _, a := range args {
		if a.Kind != KindString {
			return Null, fmt.Errorf("%w: SPLIT expects string arguments", ErrArgumentError)
		}
	}
	parts := strings.Split(args[0].Str, args[1].Str)
	out := make([]Value, len(parts))
	for i, s := range parts {
		out[i] = StringValue(s)
	}
	return ListValue(out), nil
}

// sortBindingsByOrderTerms orders a set of rows by evaluated
// ORDER BY terms, nulls sorted last regardless of direction.
func sortBindingsByOrderTerms(rows []Binding, terms []OrderTerm) error {
	var evalErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range terms {
			vi, err := Eval(term.Expr, Env{Row: rows[i]})
			if err != nil {
				evalErr = err
				return false
			}
			vj, err := Eval(term.Expr, Env{Row: rows[j]})
			if err != nil {
				evalErr = err
				return false
			}
			if vi.IsNull() && vj.IsNull() {
				continue
			}
			if vi.IsNull() {
				return false
			}
			if vj.IsNull() {
				return true
			}
			cmp := vi.Compare(vj)
			if cmp == 0 {
				continue
			}
			if term.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return evalErr
}
