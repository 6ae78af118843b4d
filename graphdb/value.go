package graphdb

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the tagged union carried by node/edge properties and by
// every expression result. Only one of the typed fields is valid for
// a given Kind.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	List  []Value
	Map   map[string]Value
}

// Null is the shared null value.
var Null = Value{Kind: KindNull}

func BoolValue(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value   { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func ListValue(vs []Value) Value { return Value{Kind: KindList, List: vs} }
func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Truthy implements the coercion rules of spec §4.5 step 2: null is
// false, numbers are truthy when non-zero, strings/lists/maps are
// truthy when non-empty.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List) > 0
	case KindMap:
		return len(v.Map) > 0
	default:
		return false
	}
}

func (v Value) isNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

func (v Value) asFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// Equal implements Cypher `=`: numeric values compare by value across
// int/float (1 = 1.0 is true); strings never equal numbers; lists and
// maps compare structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind == KindNull || o.Kind == KindNull {
		return false
	}
	if v.isNumeric() && o.isNumeric() {
		return v.asFloat() == o.asFloat()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindString:
		return v.Str == o.Str
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, lv := range v.Map {
			rv, ok := o.Map[k]
			if !ok || !lv.Equal(rv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare returns -1/0/1 for ordering purposes (ORDER BY). Values of
// differing incomparable kinds are ordered by Kind so the sort stays
// total and deterministic; numeric cross-kind compares promote to
// float per spec §4.3.
func (v Value) Compare(o Value) int {
	if v.isNumeric() && o.isNumeric() {
		lf, rf := v.asFloat(), o.asFloat()
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		default:
			return 0
		}
	}
	if v.Kind != o.Kind {
		if v.Kind < o.Kind {
			return -1
		}
		return 1
	}
	switch v.Kind {
	case KindString:
		return strings.Compare(v.Str, o.Str)
	case KindBool:
		if v.Bool == o.Bool {
			return 0
		}
		if !v.Bool {
			return -1
		}
		return 1
	default:
		return strings.Compare(v.String(), o.String())
	}
}

// String renders a Value for display (Result.ToTable, REPL output).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.Map[k].String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// ToNative converts a Value to a plain Go value, used by Result when
// handing rows back to callers that don't want to deal with Value.
func (v Value) ToNative() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = e.ToNative()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.ToNative()
		}
		return out
	default:
		return nil
	}
}

// Clone returns a deep copy, used by Store.Snapshot and property sets
// so callers can't mutate stored state through an aliased slice/map.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		out := make([]Value, len(v.List))
		for i, e := range v.List {
			out[i] = e.Clone()
		}
		return Value{Kind: KindList, List: out}
	case KindMap:
		out := make(map[string]Value, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Clone()
		}
		return Value{Kind: KindMap, Map: out}
	default:
		return v
	}
}

func cloneProperties(props map[string]Value) map[string]Value {
	out := make(map[string]Value, len(props))
	for k, v := range props {
		out[k] = v.Clone()
	}
	return out
}
