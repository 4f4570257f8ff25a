// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pep508

import (
	"strings"

	"github.com/pkg/errors"
)

// Environment marker variables defined by PEP 508.
var markerVars = map[string]bool{
	"implementation_name":            true,
	"implementation_version":         true,
	"os_name":                        true,
	"platform_machine":               true,
	"platform_python_implementation": true,
	"platform_release":               true,
	"platform_system":                true,
	"platform_version":               true,
	"python_full_version":            true,
	"python_version":                 true,
	"sys_platform":                   true,
	"extra":                          true,
}

var markerOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true,
	"<": true, ">": true, "~=": true, "===": true,
	"in": true, "not in": true,
}

// Marker is a parsed environment marker expression.
//
// Rendering is normalized: comparisons are spaced, string literals are
// double-quoted, and parentheses appear only where an "or" group sits
// inside an "and" group.
type Marker struct {
	node markerNode
}

type markerNode interface {
	write(b *strings.Builder, parentOp string)
}

type markerValue struct {
	text    string
	literal bool // quoted string rather than an environment variable
}

func (v markerValue) String() string {
	if !v.literal {
		return v.text
	}
	if strings.Contains(v.text, `"`) {
		return "'" + v.text + "'"
	}
	return `"` + v.text + `"`
}

type comparison struct {
	lhs markerValue
	op  string
	rhs markerValue
}

func (c comparison) write(b *strings.Builder, _ string) {
	b.WriteString(c.lhs.String())
	b.WriteString(" " + c.op + " ")
	b.WriteString(c.rhs.String())
}

type boolExpr struct {
	op    string // "and" or "or"
	nodes []markerNode
}

func (e boolExpr) write(b *strings.Builder, parentOp string) {
	// "and" binds tighter than "or", so only a disjunction nested in a
	// conjunction needs explicit grouping.
	paren := e.op == "or" && parentOp == "and"
	if paren {
		b.WriteString("(")
	}
	for i, n := range e.nodes {
		if i > 0 {
			b.WriteString(" " + e.op + " ")
		}
		n.write(b, e.op)
	}
	if paren {
		b.WriteString(")")
	}
}

// ParseMarker parses a PEP 508 environment marker expression.
func ParseMarker(s string) (*Marker, error) {
	toks, err := tokenizeMarker(s)
	if err != nil {
		return nil, err
	}
	p := &markerParser{toks: toks}
	node, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, errors.Errorf("unexpected %q in marker %q", p.peek().text, s)
	}
	return &Marker{node: node}, nil
}

// MustParseMarker is ParseMarker that panics on invalid input.
func MustParseMarker(s string) *Marker {
	m, err := ParseMarker(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Marker) String() string {
	var b strings.Builder
	m.node.write(&b, "")
	return b.String()
}

// IsDisjunction reports whether the top-level combinator is an "or".
func (m *Marker) IsDisjunction() bool {
	e, ok := m.node.(boolExpr)
	return ok && e.op == "or"
}

type token struct {
	kind string // "ident", "string", "op", "lparen", "rparen"
	text string
}

func tokenizeMarker(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{"lparen", "("})
			i++
		case c == ')':
			toks = append(toks, token{"rparen", ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, errors.Errorf("unterminated string in marker %q", s)
			}
			toks = append(toks, token{"string", s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(s) && strings.ContainsRune("<>=!~", rune(s[j])) {
				j++
			}
			op := s[i:j]
			if !markerOps[op] {
				return nil, errors.Errorf("invalid operator %q in marker %q", op, s)
			}
			toks = append(toks, token{"op", op})
			i = j
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			toks = append(toks, token{"ident", s[i:j]})
			i = j
		default:
			return nil, errors.Errorf("unexpected character %q in marker %q", string(c), s)
		}
	}
	return toks, nil
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type markerParser struct {
	toks []token
	pos  int
}

func (p *markerParser) eof() bool { return p.pos >= len(p.toks) }

func (p *markerParser) peek() token {
	if p.eof() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *markerParser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *markerParser) orExpr() (markerNode, error) {
	nodes := []markerNode{}
	for {
		n, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		if p.peek().kind == "ident" && p.peek().text == "or" {
			p.next()
			continue
		}
		break
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return boolExpr{op: "or", nodes: nodes}, nil
}

func (p *markerParser) andExpr() (markerNode, error) {
	nodes := []markerNode{}
	for {
		n, err := p.primary()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		if p.peek().kind == "ident" && p.peek().text == "and" {
			p.next()
			continue
		}
		break
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return boolExpr{op: "and", nodes: nodes}, nil
}

func (p *markerParser) primary() (markerNode, error) {
	if p.peek().kind == "lparen" {
		p.next()
		n, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != "rparen" {
			return nil, errors.New("missing closing parenthesis in marker")
		}
		p.next()
		return n, nil
	}
	return p.comparison()
}

func (p *markerParser) comparison() (markerNode, error) {
	lhs, err := p.value()
	if err != nil {
		return nil, err
	}
	op, err := p.operator()
	if err != nil {
		return nil, err
	}
	rhs, err := p.value()
	if err != nil {
		return nil, err
	}
	return comparison{lhs: lhs, op: op, rhs: rhs}, nil
}

func (p *markerParser) value() (markerValue, error) {
	t := p.next()
	switch t.kind {
	case "string":
		return markerValue{text: t.text, literal: true}, nil
	case "ident":
		if !markerVars[t.text] {
			return markerValue{}, errors.Errorf("unknown environment marker variable %q", t.text)
		}
		return markerValue{text: t.text}, nil
	}
	return markerValue{}, errors.Errorf("expected marker variable or quoted string, got %q", t.text)
}

func (p *markerParser) operator() (string, error) {
	t := p.next()
	switch {
	case t.kind == "op":
		return t.text, nil
	case t.kind == "ident" && t.text == "in":
		return "in", nil
	case t.kind == "ident" && t.text == "not":
		if p.peek().kind == "ident" && p.peek().text == "in" {
			p.next()
			return "not in", nil
		}
	}
	return "", errors.Errorf("expected comparison operator, got %q", t.text)
}
