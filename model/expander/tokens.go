package expander

import (
	"github.com/viant/parsly"
)

const (
	placeholderCode = iota
	openPlaceholderCode
	textCode
)

var (
	placeholderToken     = parsly.NewToken(placeholderCode, "${name}", &placeholderMatcher{})
	openPlaceholderToken = parsly.NewToken(openPlaceholderCode, "${", &openPlaceholderMatcher{})
	textToken            = parsly.NewToken(textCode, "Text", &textMatcher{})
)

// placeholderMatcher matches ${name} where name is a variable identifier.
type placeholderMatcher struct{}

func (m *placeholderMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos+2 >= size || input[pos] != '$' || input[pos+1] != '{' {
		return 0
	}
	for i := pos + 2; i < size; i++ {
		if input[i] == '}' {
			if i == pos+2 {
				return 0
			}
			return i - pos + 1
		}
		if !isNameByte(input[i]) {
			return 0
		}
	}
	return 0
}

// openPlaceholderMatcher matches a "${" that does not start a valid placeholder.
type openPlaceholderMatcher struct{}

func (m *openPlaceholderMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos+1 < cursor.InputSize && input[pos] == '$' && input[pos+1] == '{' {
		return 2
	}
	return 0
}

// textMatcher matches everything up to the next "${".
type textMatcher struct{}

func (m *textMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	matched := 0
	for i := pos; i < size; i++ {
		if input[i] == '$' && i+1 < size && input[i+1] == '{' {
			break
		}
		matched++
	}
	return matched
}

func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '.' || c == '-'
}
