package job

import (
	"context"

	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

type bound struct {
	execution *model.Execution
	handler   handler.Handler
	label     string
}

func (b *bound) ID() string           { return b.execution.ID }
func (b *bound) Label() string        { return b.label }
func (b *bound) BlockerIDs() []string { return b.execution.BlockerIDs }
func (b *bound) ResourceID() string   { return b.execution.ResourceID }

func (b *bound) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	return b.handler.Execute(ctx, mon, ectx, b.execution)
}

// Bind resolves execution against the context arguments and binds it to its
// handler: command executions by profile with wildcard fallback, data
// executions to the data handler.
func Bind(registry *handler.Registry, ectx *model.Context, execution *model.Execution) (Job, error) {
	var target handler.Handler
	switch execution.Kind {
	case model.KindData:
		target = registry.Data()
	default:
		h, ok := registry.Command(execution.Profile)
		if !ok {
			return nil, &handler.MissingError{
				Profile:     execution.Profile,
				BatchID:     ectx.BatchID(),
				FlowID:      ectx.FlowID(),
				Phase:       ectx.Phase(),
				Module:      execution.Module,
				ExecutionID: execution.ID,
			}
		}
		target = h
	}
	resolved, err := execution.Resolve(ectx.Arguments())
	if err != nil {
		return nil, err
	}
	return &bound{execution: resolved, handler: target, label: resolved.ID + "@" + target.ID()}, nil
}

// BindAll binds executions in order, failing on the first error.
func BindAll(registry *handler.Registry, ectx *model.Context, executions []*model.Execution) ([]Job, error) {
	ret := make([]Job, 0, len(executions))
	for _, execution := range executions {
		j, err := Bind(registry, ectx, execution)
		if err != nil {
			return nil, err
		}
		ret = append(ret, j)
	}
	return ret, nil
}
