package task

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/toolbox"
)

const (
	// KeySkipFlows lists flow ids treated as already completed.
	KeySkipFlows = "skipFlows"
	// KeySerializeFlows runs flows of a batch one at a time.
	KeySerializeFlows = "serializeFlows"
)

// Definitions are task level switches.
type Definitions struct {
	SkipFlows      []string
	SerializeFlows bool
}

// ParseDefinitions consumes known keys from values; any other key fails.
func ParseDefinitions(values map[string]string) (*Definitions, error) {
	ret := &Definitions{}
	rest := make(map[string]string, len(values))
	for k, v := range values {
		rest[k] = v
	}
	if value, ok := rest[KeySkipFlows]; ok {
		delete(rest, KeySkipFlows)
		for _, flowID := range strings.Split(value, ",") {
			if flowID = strings.TrimSpace(flowID); flowID != "" {
				ret.SkipFlows = append(ret.SkipFlows, flowID)
			}
		}
	}
	if value, ok := rest[KeySerializeFlows]; ok {
		delete(rest, KeySerializeFlows)
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidDefinition, KeySerializeFlows, value)
		}
		ret.SerializeFlows = toolbox.AsBoolean(value)
	}
	if len(rest) > 0 {
		keys := make([]string, 0, len(rest))
		for k := range rest {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s", ErrUnknownDefinition, strings.Join(keys, ", "))
	}
	return ret, nil
}

func (d *Definitions) skipped() map[string]bool {
	ret := make(map[string]bool, len(d.SkipFlows))
	for _, flowID := range d.SkipFlows {
		ret[flowID] = true
	}
	return ret
}
