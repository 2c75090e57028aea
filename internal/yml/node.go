package yml

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"strconv"
	"strings"
)

type (
	Node yaml.Node
)

// Root returns the first content node of a document, or n itself.
func (n *Node) Root() *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i := 0; i < len(n.Content); i++ {
		if err := callback(i, (*Node)(n.Content[i])); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// String returns the scalar value.
func (n *Node) String() (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected scalar", n.Line)
	}
	return n.Value, nil
}

// Strings returns a scalar or sequence of scalars as a slice. A scalar holding
// a comma separated list is split.
func (n *Node) Strings() ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || strings.TrimSpace(n.Value) == "" {
			return nil, nil
		}
		var result []string
		for _, item := range strings.Split(n.Value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
		return result, nil
	case yaml.SequenceNode:
		result := make([]string, 0, len(n.Content))
		err := n.Items(func(_ int, item *Node) error {
			value, err := item.String()
			if err != nil {
				return err
			}
			result = append(result, value)
			return nil
		})
		return result, err
	}
	return nil, fmt.Errorf("line %d: expected scalar or sequence", n.Line)
}

// StringMap returns a mapping of scalars.
func (n *Node) StringMap() (map[string]string, error) {
	result := map[string]string{}
	err := n.Pairs(func(key string, value *Node) error {
		text, err := value.String()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		result[key] = text
		return nil
	})
	return result, err
}

func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			return strings.ToLower(n.Value) == "true"
		case "!!null":
			return nil
		case "!!float":
			f, _ := strconv.ParseFloat(n.Value, 64)
			return f
		case "!!int":
			i, _ := strconv.Atoi(n.Value)
			return i
		default:
			return n.Value
		}
	case yaml.MappingNode:
		var aMap = make(map[string]interface{})
		for i := 0; i+1 < len(n.Content); i += 2 {
			aMap[n.Content[i].Value] = (*Node)(n.Content[i+1]).Interface()
		}
		return aMap
	case yaml.SequenceNode:
		var aSlice = make([]interface{}, 0)
		for i := 0; i < len(n.Content); i++ {
			aSlice = append(aSlice, (*Node)(n.Content[i]).Interface())
		}
		return aSlice
	}
	return nil
}
