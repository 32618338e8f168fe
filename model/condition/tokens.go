package condition

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	selectorCode
	numberCode
	stringCode
	openParenCode
	closeParenCode
	andCode
	orCode
	notCode
	operatorCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	selectorToken   = parsly.NewToken(selectorCode, "Selector", &selectorMatcher{})
	numberToken     = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	stringToken     = parsly.NewToken(stringCode, "String", &stringMatcher{})
	openParenToken  = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	andToken        = parsly.NewToken(andCode, "&&", &wordMatcher{word: "&&"})
	orToken         = parsly.NewToken(orCode, "||", &wordMatcher{word: "||"})
	notToken        = parsly.NewToken(notCode, "!", &notMatcher{})
	operatorToken   = parsly.NewToken(operatorCode, "Operator", &operatorMatcher{})
)

// selectorMatcher matches dotted identifiers: classify.kind, output, _x.y
type selectorMatcher struct{}

func (m *selectorMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '_' || c == '.' {
			matched++
			continue
		}
		break
	}
	return matched
}

// numberMatcher matches integer and decimal literals, optionally signed.
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	matched := 0
	if input[pos] == '-' {
		if pos+1 >= size || !isDigit(input[pos+1]) {
			return 0
		}
		matched = 1
	}
	seenDigit := false
	for i := pos + matched; i < size; i++ {
		c := input[i]
		if isDigit(c) {
			seenDigit = true
			matched++
			continue
		}
		if c == '.' && seenDigit {
			matched++
			continue
		}
		break
	}
	if !seenDigit {
		return 0
	}
	return matched
}

// stringMatcher matches single or double quoted literals including the
// surrounding quotes.
type stringMatcher struct{}

func (m *stringMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	quote := input[pos]
	if quote != '\'' && quote != '"' {
		return 0
	}
	for i := pos + 1; i < size; i++ {
		if input[i] == quote {
			return i - pos + 1
		}
	}
	return 0
}

// wordMatcher matches a fixed multi-byte token.
type wordMatcher struct{ word string }

func (m *wordMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos+len(m.word) > cursor.InputSize {
		return 0
	}
	if string(input[pos:pos+len(m.word)]) != m.word {
		return 0
	}
	return len(m.word)
}

// notMatcher matches a lone '!': it must not be the start of '!='.
type notMatcher struct{}

func (m *notMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '!' {
		return 0
	}
	if pos+1 < cursor.InputSize && input[pos+1] == '=' {
		return 0
	}
	return 1
}

// operatorMatcher matches comparison operators, longest first.
type operatorMatcher struct{}

var operators = []string{"==", "!=", ">=", "<=", ">", "<"}

func (m *operatorMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	for _, op := range operators {
		if pos+len(op) > size {
			continue
		}
		if string(input[pos:pos+len(op)]) == op {
			return len(op)
		}
	}
	return 0
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
