// Package rules implements the decision core: condition evaluation,
// modality resolution over the decision table, stage generation and
// checklist progress accounting.
package rules

import "strconv"

// Operators understood by Test. The set is fixed; existing rule
// documents depend on unknown operators evaluating to false rather than
// raising an error, so that policy is preserved here.
const (
	OpEquals    = "eq"
	OpNotEquals = "neq"
	OpGTE       = "gte"
	OpLTE       = "lte"
	OpIn        = "in"
	OpTruthy    = "truthy"
	OpFalsy     = "falsy"
)

// Test evaluates a single comparison predicate against an answer value.
// Values come from a normalized answer set: bool, float64, string or nil.
func Test(value any, op string, expected any) bool {
	switch op {
	case OpEquals:
		return strictEqual(value, expected)
	case OpNotEquals:
		return !strictEqual(value, expected)
	case OpGTE:
		a, aok := toNumber(value)
		b, bok := toNumber(expected)
		return aok && bok && a >= b
	case OpLTE:
		a, aok := toNumber(value)
		b, bok := toNumber(expected)
		return aok && bok && a <= b
	case OpIn:
		seq, ok := expected.([]any)
		if !ok {
			return false
		}
		for _, item := range seq {
			if strictEqual(value, item) {
				return true
			}
		}
		return false
	case OpTruthy:
		return isTruthy(value)
	case OpFalsy:
		return !isTruthy(value)
	default:
		return false
	}
}

// strictEqual compares type and value. nil equals only nil; a number
// never equals its string spelling or a bool.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		if !isNumeric(b) {
			return false
		}
		bv, _ := toNumber(b)
		return av == bv
	case int:
		if !isNumeric(b) {
			return false
		}
		av64, _ := toNumber(a)
		bv, _ := toNumber(b)
		return av64 == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		return false
	}
}

// isNumeric reports whether v is an actual number, as opposed to a
// value toNumber would coerce into one.
func isNumeric(v any) bool {
	switch v.(type) {
	case float64, int, int64:
		return true
	}
	return false
}

// toNumber coerces a value to float64. nil and non-numeric strings do
// not coerce, so a numeric comparison against them always fails — an
// unanswered question can never satisfy gte/lte.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isTruthy applies boolean coercion: false, 0, "" and nil are falsy,
// everything else is truthy.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
