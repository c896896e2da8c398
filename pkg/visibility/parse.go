package visibility

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenVariable tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenOperator
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

var wordTokens = map[string]token{
	"and":         {kind: tokenAnd, raw: "and"},
	"or":          {kind: tokenOr, raw: "or"},
	"not":         {kind: tokenNot, raw: "not"},
	"true":        {kind: tokenBool, raw: "true"},
	"false":       {kind: tokenBool, raw: "false"},
	"null":        {kind: tokenNull, raw: "null"},
	"contains":    {kind: tokenOperator, raw: "contains"},
	"notcontains": {kind: tokenOperator, raw: "notcontains"},
	"empty":       {kind: tokenOperator, raw: "empty"},
	"notempty":    {kind: tokenOperator, raw: "notempty"},
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '{':
			end := strings.IndexByte(input[i:], '}')
			if end < 0 {
				return nil, errors.New("visibility: unterminated {name}")
			}
			name := strings.TrimSpace(input[i+1 : i+end])
			if name == "" {
				return nil, errors.New("visibility: empty {name}")
			}
			tokens = append(tokens, token{kind: tokenVariable, raw: name})
			i += end + 1
		case ch == '"' || ch == '\'':
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, errors.New("visibility: unterminated string literal")
			}
			value := strings.ReplaceAll(input[i+1:end], `\`+string(ch), string(ch))
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i = end + 1
		case strings.ContainsRune("=!<>&|", rune(ch)):
			op, width := symbolAt(input[i:])
			if width == 0 {
				return nil, fmt.Errorf("visibility: unexpected %q", string(ch))
			}
			tokens = append(tokens, op)
			i += width
		default:
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\n\r(){}'\"=!<>&|", rune(input[i])) {
				i++
			}
			word := input[start:i]
			if tok, ok := wordTokens[strings.ToLower(word)]; ok {
				tokens = append(tokens, tok)
				continue
			}
			if _, err := strconv.ParseFloat(word, 64); err == nil {
				tokens = append(tokens, token{kind: tokenNumber, raw: word})
				continue
			}
			return nil, fmt.Errorf("visibility: unknown word %q; reference answers as {%s}", word, word)
		}
	}
	return tokens, nil
}

func symbolAt(s string) (token, int) {
	two := ""
	if len(s) >= 2 {
		two = s[:2]
	}
	switch two {
	case "==", "!=", "<=", ">=":
		return token{kind: tokenOperator, raw: two}, 2
	case "<>":
		return token{kind: tokenOperator, raw: "!="}, 2
	case "&&":
		return token{kind: tokenAnd, raw: "and"}, 2
	case "||":
		return token{kind: tokenOr, raw: "or"}, 2
	}
	switch s[0] {
	case '=':
		return token{kind: tokenOperator, raw: "=="}, 1
	case '<', '>':
		return token{kind: tokenOperator, raw: s[:1]}, 1
	case '!':
		return token{kind: tokenNot, raw: "not"}, 1
	}
	return token{}, 0
}

type parser struct {
	tokens []token
	pos    int
	names  []string
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) match(kind tokenKind) bool {
	if tok, ok := p.peek(); ok && tok.kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(tokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(tokenAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.match(tokenNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	tok, ok := p.peek()
	if !ok || tok.kind != tokenOperator {
		return left, nil
	}
	p.pos++
	switch tok.raw {
	case "empty", "notempty":
		return emptyNode{operand: left, negate: tok.raw == "notempty"}, nil
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return compareNode{op: tok.raw, left: left, right: right}, nil
}

func (p *parser) parseOperand() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("visibility: expression ends early")
	}
	p.pos++
	switch tok.kind {
	case tokenLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(tokenRParen) {
			return nil, errors.New("visibility: missing closing ')'")
		}
		return inner, nil
	case tokenVariable:
		p.noteName(tok.raw)
		return varNode{name: tok.raw}, nil
	case tokenString:
		return literalNode{value: tok.raw}, nil
	case tokenNumber:
		f, _ := strconv.ParseFloat(tok.raw, 64)
		return literalNode{value: f}, nil
	case tokenBool:
		return literalNode{value: tok.raw == "true"}, nil
	case tokenNull:
		return literalNode{value: nil}, nil
	default:
		return nil, fmt.Errorf("visibility: expected a value, got %q", tok.raw)
	}
}

func (p *parser) noteName(name string) {
	for _, n := range p.names {
		if n == name {
			return
		}
	}
	p.names = append(p.names, name)
}
