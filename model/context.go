package model

import (
	"fmt"
	"sort"
	"strings"
)

// Context identifies one phase execution of a flow. It is immutable; use
// WithPhase to derive a context for another phase.
type Context struct {
	batchID     string
	flowID      string
	executionID string
	phase       Phase
	arguments   map[string]string
}

// NewContext creates a context, rejecting empty identifiers and unknown phases.
func NewContext(batchID, flowID, executionID string, phase Phase, arguments map[string]string) (*Context, error) {
	switch {
	case batchID == "":
		return nil, fmt.Errorf("%w: batch", ErrEmptyID)
	case flowID == "":
		return nil, fmt.Errorf("%w: flow", ErrEmptyID)
	case executionID == "":
		return nil, fmt.Errorf("%w: execution", ErrEmptyID)
	}
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, int(phase))
	}
	return &Context{
		batchID:     batchID,
		flowID:      flowID,
		executionID: executionID,
		phase:       phase,
		arguments:   copyArguments(arguments),
	}, nil
}

func (c *Context) BatchID() string     { return c.batchID }
func (c *Context) FlowID() string      { return c.flowID }
func (c *Context) ExecutionID() string { return c.executionID }
func (c *Context) Phase() Phase        { return c.phase }

// Arguments returns a copy of the batch arguments.
func (c *Context) Arguments() map[string]string {
	return copyArguments(c.arguments)
}

// Argument returns a single batch argument.
func (c *Context) Argument(key string) (string, bool) {
	value, ok := c.arguments[key]
	return value, ok
}

// WithPhase returns a copy of the context for phase.
func (c *Context) WithPhase(phase Phase) *Context {
	ret := *c
	ret.phase = phase
	return &ret
}

// ArgumentsString encodes arguments as k1=v1,k2=v2 sorted by key; '\', ','
// and '=' are escaped with a backslash.
func (c *Context) ArgumentsString() string {
	keys := make([]string, 0, len(c.arguments))
	for key := range c.arguments {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	builder := strings.Builder{}
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte(',')
		}
		escapeArgument(&builder, key)
		builder.WriteByte('=')
		escapeArgument(&builder, c.arguments[key])
	}
	return builder.String()
}

func (c *Context) String() string {
	return fmt.Sprintf("batch=%s, flow=%s, phase=%s, execution=%s", c.batchID, c.flowID, c.phase, c.executionID)
}

func escapeArgument(builder *strings.Builder, text string) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\', ',', '=':
			builder.WriteByte('\\')
		}
		builder.WriteByte(text[i])
	}
}

func copyArguments(arguments map[string]string) map[string]string {
	ret := make(map[string]string, len(arguments))
	for k, v := range arguments {
		ret[k] = v
	}
	return ret
}
