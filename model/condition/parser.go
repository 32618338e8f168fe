// Package condition parses and evaluates transition condition expressions.
// The supported grammar covers selectors over the workflow context
// (step.field), string/number/bool literals, comparison operators and
// boolean combinators, e.g. `classify.kind == 'question' && retries < 3`.
package condition

import (
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

type nodeKind int

const (
	kindLiteral nodeKind = iota
	kindSelector
	kindCompare
	kindAnd
	kindOr
	kindNot
)

type node struct {
	kind     nodeKind
	value    interface{} // literal value
	selector []string    // selector path
	operator string      // comparison operator
	left     *node
	right    *node
}

// Expr is a parsed condition ready for repeated evaluation. It is immutable
// and safe to share across runs.
type Expr struct {
	source string
	root   *node
}

// Source returns the original expression text.
func (e *Expr) Source() string { return e.source }

// Parse compiles an expression; the result can be evaluated many times.
func Parse(input string) (*Expr, error) {
	cursor := parsly.NewCursor("", []byte(input), 0)
	root, err := parseOr(cursor)
	if err != nil {
		return nil, err
	}
	// Trailing garbage is an error.
	if matched := cursor.MatchAfterOptional(whitespaceToken, selectorToken, numberToken, stringToken, operatorToken, openParenToken, closeParenToken); matched.Code > 0 {
		return nil, cursor.NewError(andToken, orToken)
	}
	return &Expr{source: input, root: root}, nil
}

func parseOr(cursor *parsly.Cursor) (*node, error) {
	left, err := parseAnd(cursor)
	if err != nil {
		return nil, err
	}
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, orToken)
		if matched.Code != orToken.Code {
			return left, nil
		}
		right, err := parseAnd(cursor)
		if err != nil {
			return nil, err
		}
		left = &node{kind: kindOr, left: left, right: right}
	}
}

func parseAnd(cursor *parsly.Cursor) (*node, error) {
	left, err := parseUnary(cursor)
	if err != nil {
		return nil, err
	}
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, andToken)
		if matched.Code != andToken.Code {
			return left, nil
		}
		right, err := parseUnary(cursor)
		if err != nil {
			return nil, err
		}
		left = &node{kind: kindAnd, left: left, right: right}
	}
}

func parseUnary(cursor *parsly.Cursor) (*node, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, notToken)
	if matched.Code == notToken.Code {
		operand, err := parseUnary(cursor)
		if err != nil {
			return nil, err
		}
		return &node{kind: kindNot, left: operand}, nil
	}
	return parseComparison(cursor)
}

func parseComparison(cursor *parsly.Cursor) (*node, error) {
	left, err := parseOperand(cursor)
	if err != nil {
		return nil, err
	}
	matched := cursor.MatchAfterOptional(whitespaceToken, operatorToken)
	if matched.Code != operatorToken.Code {
		return left, nil
	}
	operator := matched.Text(cursor)
	right, err := parseOperand(cursor)
	if err != nil {
		return nil, err
	}
	return &node{kind: kindCompare, operator: operator, left: left, right: right}, nil
}

func parseOperand(cursor *parsly.Cursor) (*node, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, openParenToken, stringToken, numberToken, selectorToken)
	switch matched.Code {
	case openParenToken.Code:
		inner, err := parseOr(cursor)
		if err != nil {
			return nil, err
		}
		matched = cursor.MatchAfterOptional(whitespaceToken, closeParenToken)
		if matched.Code != closeParenToken.Code {
			return nil, cursor.NewError(closeParenToken)
		}
		return inner, nil
	case stringToken.Code:
		text := matched.Text(cursor)
		return &node{kind: kindLiteral, value: text[1 : len(text)-1]}, nil
	case numberToken.Code:
		text := matched.Text(cursor)
		if strings.Contains(text, ".") {
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, err
			}
			return &node{kind: kindLiteral, value: value}, nil
		}
		value, err := strconv.Atoi(text)
		if err != nil {
			return nil, err
		}
		return &node{kind: kindLiteral, value: value}, nil
	case selectorToken.Code:
		text := matched.Text(cursor)
		switch text {
		case "true":
			return &node{kind: kindLiteral, value: true}, nil
		case "false":
			return &node{kind: kindLiteral, value: false}, nil
		case "nil", "null":
			return &node{kind: kindLiteral, value: nil}, nil
		}
		return &node{kind: kindSelector, selector: strings.Split(text, ".")}, nil
	}
	return nil, cursor.NewError(selectorToken, numberToken, stringToken, openParenToken)
}
