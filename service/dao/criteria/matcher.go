// Package criteria matches entities against dao parameters.
package criteria

import (
	"github.com/viant/phaser/service/dao"
)

// Match reports whether every parameter matches the field it names. A
// parameter naming a field unknown to lookup does not constrain the result.
func Match(lookup func(name string) (string, bool), parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, ok := lookup(parameter.Name)
		if !ok {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if value != actual {
				return false
			}
		case []string:
			if !contains(actual, value) {
				return false
			}
		}
	}
	return true
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
