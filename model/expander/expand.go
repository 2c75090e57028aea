// Package expander replaces ${name} placeholders with variable values.
package expander

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/parsly"
)

// ErrUnresolved is returned when a placeholder names an unknown variable.
var ErrUnresolved = errors.New("unresolved variable")

// Lookup returns the value of a variable.
type Lookup func(name string) (string, bool)

// FromMap returns a Lookup backed by values.
func FromMap(values map[string]string) Lookup {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

// Expand replaces every ${name} in text; an unknown name or an unterminated
// placeholder is an error.
func Expand(text string, lookup Lookup) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}
	cursor := parsly.NewCursor("", []byte(text), 0)
	builder := strings.Builder{}
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAny(placeholderToken, openPlaceholderToken, textToken)
		switch matched.Code {
		case placeholderCode:
			expr := matched.Text(cursor)
			name := expr[2 : len(expr)-1]
			value, ok := lookup(name)
			if !ok {
				return "", fmt.Errorf("%w: %q in %q", ErrUnresolved, name, text)
			}
			builder.WriteString(value)
		case textCode:
			builder.WriteString(matched.Text(cursor))
		case openPlaceholderCode:
			return "", fmt.Errorf("invalid placeholder at %d in %q", cursor.Pos-2, text)
		default:
			return "", cursor.NewError(placeholderToken, textToken)
		}
	}
	return builder.String(), nil
}

// ExpandAll expands each element of values, returning a new slice.
func ExpandAll(values []string, lookup Lookup) ([]string, error) {
	if values == nil {
		return nil, nil
	}
	result := make([]string, len(values))
	for i, value := range values {
		expanded, err := Expand(value, lookup)
		if err != nil {
			return nil, err
		}
		result[i] = expanded
	}
	return result, nil
}

// ExpandMap expands every value of values, returning a new map.
func ExpandMap(values map[string]string, lookup Lookup) (map[string]string, error) {
	if values == nil {
		return nil, nil
	}
	result := make(map[string]string, len(values))
	for key, value := range values {
		expanded, err := Expand(value, lookup)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		result[key] = expanded
	}
	return result, nil
}
