package model

// Flow is a node of the batch graph running the fixed phase sequence.
type Flow struct {
	ID         string                 `json:"id" yaml:"id"`
	BlockerIDs []string               `json:"blockerIds,omitempty" yaml:"blockerIds,omitempty"`
	Executions map[Phase][]*Execution `json:"executions,omitempty" yaml:"executions,omitempty"`
}

// PhaseExecutions returns the executions declared for phase.
func (f *Flow) PhaseExecutions(phase Phase) []*Execution {
	if f == nil || f.Executions == nil {
		return nil
	}
	return f.Executions[phase]
}

// Add appends executions to phase.
func (f *Flow) Add(phase Phase, executions ...*Execution) *Flow {
	if f.Executions == nil {
		f.Executions = map[Phase][]*Execution{}
	}
	f.Executions[phase] = append(f.Executions[phase], executions...)
	return f
}
