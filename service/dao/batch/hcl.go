package batch

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/viant/phaser/model"
	"github.com/zclconf/go-cty/cty"
)

type hclFile struct {
	Batches []*hclBatch `hcl:"batch,block"`
}

type hclBatch struct {
	ID    string     `hcl:"id,label"`
	Flows []*hclFlow `hcl:"flow,block"`
}

type hclFlow struct {
	ID       string      `hcl:"id,label"`
	Blockers []string    `hcl:"blockers,optional"`
	Phases   []*hclPhase `hcl:"phase,block"`
}

type hclPhase struct {
	Name       string          `hcl:"name,label"`
	Executions []*hclExecution `hcl:"execution,block"`
}

type hclExecution struct {
	ID         string            `hcl:"id,label"`
	Kind       string            `hcl:"kind,optional"`
	Blockers   []string          `hcl:"blockers,optional"`
	Resource   string            `hcl:"resource,optional"`
	Profile    string            `hcl:"profile,optional"`
	Module     string            `hcl:"module,optional"`
	Command    []string          `hcl:"command,optional"`
	ClassName  string            `hcl:"class_name,optional"`
	Properties map[string]string `hcl:"properties,optional"`
	Env        map[string]string `hcl:"env,optional"`
}

// DecodeHCL decodes a file holding exactly one batch block. Expressions are
// evaluated with args exposed as args.<name>.
func DecodeHCL(filename string, data []byte, args map[string]string) (*model.Batch, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}
	var parsed hclFile
	if diags = gohcl.DecodeBody(file.Body, evalContext(args), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}
	if len(parsed.Batches) != 1 {
		return nil, fmt.Errorf("expected one batch block, found %d", len(parsed.Batches))
	}
	source := parsed.Batches[0]
	ret := &model.Batch{ID: source.ID}
	for _, aFlow := range source.Flows {
		flow := &model.Flow{ID: aFlow.ID, BlockerIDs: aFlow.Blockers}
		for _, aPhase := range aFlow.Phases {
			phase, err := model.ParsePhase(aPhase.Name)
			if err != nil {
				return nil, fmt.Errorf("flow %s: %w", aFlow.ID, err)
			}
			for _, e := range aPhase.Executions {
				execution := &model.Execution{
					ID:         e.ID,
					Kind:       model.Kind(e.Kind),
					BlockerIDs: e.Blockers,
					ResourceID: e.Resource,
					Profile:    e.Profile,
					Module:     e.Module,
					Command:    e.Command,
					ClassName:  e.ClassName,
					Properties: e.Properties,
					Env:        e.Env,
				}
				defaultKind(execution)
				flow.Add(phase, execution)
			}
		}
		ret.Flows = append(ret.Flows, flow)
	}
	return ret, nil
}

func evalContext(args map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(args))
	for k, v := range args {
		values[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"args": cty.ObjectVal(values)},
	}
}
