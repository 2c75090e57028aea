package model

import (
	"errors"
	"fmt"
	"strings"
)

// Batch is a dependency graph of flows.
type Batch struct {
	ID     string  `json:"id" yaml:"id"`
	Source string  `json:"source,omitempty" yaml:"source,omitempty"`
	Flows  []*Flow `json:"flows" yaml:"flows"`
}

// Flow returns the flow with id or nil.
func (b *Batch) Flow(id string) *Flow {
	for _, flow := range b.Flows {
		if flow.ID == id {
			return flow
		}
	}
	return nil
}

// FlowIDs returns flow ids in declaration order.
func (b *Batch) FlowIDs() []string {
	ret := make([]string, 0, len(b.Flows))
	for _, flow := range b.Flows {
		ret = append(ret, flow.ID)
	}
	return ret
}

// Validate performs structural validation. The returned slice is empty when
// the batch is sound.
func (b *Batch) Validate() []error {
	var issues []error
	if b.ID == "" {
		issues = append(issues, fmt.Errorf("batch id is empty"))
	}
	seen := map[string]bool{}
	for _, flow := range b.Flows {
		if flow == nil {
			issues = append(issues, fmt.Errorf("batch %s has nil flow", b.ID))
			continue
		}
		if flow.ID == "" {
			issues = append(issues, fmt.Errorf("batch %s has flow with empty id", b.ID))
		} else if strings.Contains(flow.ID, ".") {
			issues = append(issues, fmt.Errorf("flow id %q must not contain '.'", flow.ID))
		}
		if seen[flow.ID] {
			issues = append(issues, fmt.Errorf("duplicate flow id %s", flow.ID))
		}
		seen[flow.ID] = true
	}
	for _, flow := range b.Flows {
		if flow == nil {
			continue
		}
		for _, blocker := range flow.BlockerIDs {
			if blocker == flow.ID {
				issues = append(issues, fmt.Errorf("flow %s blocks itself", flow.ID))
			} else if !seen[blocker] {
				issues = append(issues, fmt.Errorf("flow %s is blocked by unknown flow %s", flow.ID, blocker))
			}
		}
		for phase, executions := range flow.Executions {
			if !phase.Valid() {
				issues = append(issues, fmt.Errorf("flow %s has executions in unknown phase %d", flow.ID, int(phase)))
				continue
			}
			issues = append(issues, validateExecutions(flow.ID, phase, executions)...)
		}
	}
	return issues
}

// Err returns the validation issues joined and wrapped with ErrInvalidBatch.
func (b *Batch) Err() error {
	issues := b.Validate()
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w %s: %w", ErrInvalidBatch, b.ID, errors.Join(issues...))
}

func validateExecutions(flowID string, phase Phase, executions []*Execution) []error {
	var issues []error
	ids := map[string]bool{}
	for _, execution := range executions {
		if execution == nil {
			issues = append(issues, fmt.Errorf("flow %s phase %s has nil execution", flowID, phase))
			continue
		}
		if execution.ID == "" {
			issues = append(issues, fmt.Errorf("flow %s phase %s has execution with empty id", flowID, phase))
		}
		if ids[execution.ID] {
			issues = append(issues, fmt.Errorf("flow %s phase %s: duplicate execution id %s", flowID, phase, execution.ID))
		}
		ids[execution.ID] = true
		switch execution.Kind {
		case KindCommand:
		case KindData:
			if execution.ClassName == "" {
				issues = append(issues, fmt.Errorf("flow %s phase %s: data execution %s has no class name", flowID, phase, execution.ID))
			}
		default:
			issues = append(issues, fmt.Errorf("flow %s phase %s: execution %s has unknown kind %q", flowID, phase, execution.ID, execution.Kind))
		}
	}
	for _, execution := range executions {
		if execution == nil {
			continue
		}
		for _, blocker := range execution.BlockerIDs {
			if !ids[blocker] || blocker == execution.ID {
				issues = append(issues, fmt.Errorf("flow %s phase %s: execution %s is blocked by unknown execution %s", flowID, phase, execution.ID, blocker))
			}
		}
	}
	return issues
}
