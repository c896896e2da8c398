// Package visibility evaluates the conditions questions carry in visibleIf.
//
// Conditions reference answers by name in braces and compare them with
// literals:
//
//	{plan} = 'pro' and {seats} > 5
//	{newsletter} notempty or not ({age} < 18)
//	{tags} contains 'go'
//
// Supported operators: = == != <> < <= > >= contains notcontains, postfix
// empty and notempty, and/&&, or/||, not/!. Bare {name} tests truthiness.
package visibility

import (
	"fmt"
	"strings"
)

// Condition is a compiled visibleIf expression.
type Condition interface {
	Eval(values map[string]any) bool
	// Names lists the answers the condition reads, in first-use order.
	Names() []string
}

// Compile parses rule. Blank rules compile to nil, which callers treat as
// always visible.
func Compile(rule string) (Condition, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility: unexpected %q", p.tokens[p.pos].raw)
	}
	return &compiled{root: node, names: p.names}, nil
}

// Eval compiles and evaluates rule in one step.
func Eval(rule string, values map[string]any) (bool, error) {
	cond, err := Compile(rule)
	if err != nil {
		return false, err
	}
	if cond == nil {
		return true, nil
	}
	return cond.Eval(values), nil
}

type compiled struct {
	root  node
	names []string
}

func (c *compiled) Eval(values map[string]any) bool {
	return truthy(c.root.eval(values))
}

func (c *compiled) Names() []string {
	return append([]string(nil), c.names...)
}
