package visibility

import (
	"fmt"
	"strconv"
	"strings"
)

type node interface {
	eval(values map[string]any) any
}

type orNode struct{ left, right node }

func (n orNode) eval(values map[string]any) any {
	return truthy(n.left.eval(values)) || truthy(n.right.eval(values))
}

type andNode struct{ left, right node }

func (n andNode) eval(values map[string]any) any {
	return truthy(n.left.eval(values)) && truthy(n.right.eval(values))
}

type notNode struct{ inner node }

func (n notNode) eval(values map[string]any) any {
	return !truthy(n.inner.eval(values))
}

type varNode struct{ name string }

func (n varNode) eval(values map[string]any) any {
	return lookup(values, n.name)
}

type literalNode struct{ value any }

func (n literalNode) eval(map[string]any) any {
	return n.value
}

type emptyNode struct {
	operand node
	negate  bool
}

func (n emptyNode) eval(values map[string]any) any {
	return truthy(n.operand.eval(values)) == n.negate
}

type compareNode struct {
	op          string
	left, right node
}

func (n compareNode) eval(values map[string]any) any {
	l, r := n.left.eval(values), n.right.eval(values)
	switch n.op {
	case "==":
		return equal(l, r)
	case "!=":
		return !equal(l, r)
	case "contains":
		return contains(l, r)
	case "notcontains":
		return !contains(l, r)
	}
	lf, lok := number(l)
	rf, rok := number(r)
	if !lok || !rok {
		return false
	}
	switch n.op {
	case "<":
		return lf < rf
	case "<=":
		return lf <= rf
	case ">":
		return lf > rf
	case ">=":
		return lf >= rf
	}
	return false
}

// lookup reads an answer, descending into nested objects on dots when the
// dotted name is not itself a key.
func lookup(values map[string]any, name string) any {
	if v, ok := values[name]; ok {
		return v
	}
	var current any = values
	for _, part := range strings.Split(name, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return !truthy(a) && !truthy(b)
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			return af == bf
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := boolean(b); ok {
			return ab == bb
		}
	}
	if bb, ok := b.(bool); ok {
		if ab, ok := boolean(a); ok {
			return ab == bb
		}
	}
	return text(a) == text(b)
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if equal(item, needle) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range h {
			if equal(item, needle) {
				return true
			}
		}
		return false
	case nil:
		return false
	default:
		return strings.Contains(text(h), text(needle))
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if f, ok := number(value); ok {
		return f != 0
	}
	return true
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func boolean(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
