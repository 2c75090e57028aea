package job

import (
	"context"

	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

type lifecycle struct {
	handler handler.Handler
	method  string
	run     func(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error
}

func (l *lifecycle) ID() string           { return l.handler.ID() }
func (l *lifecycle) Label() string        { return l.handler.ID() + ":" + l.method }
func (l *lifecycle) BlockerIDs() []string { return nil }
func (l *lifecycle) ResourceID() string   { return "" }

func (l *lifecycle) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	return l.run(ctx, mon, ectx)
}

// Setup returns a job running h.Setup.
func Setup(h handler.Handler) Job {
	return &lifecycle{handler: h, method: "setup", run: h.Setup}
}

// Cleanup returns a job running h.Cleanup.
func Cleanup(h handler.Handler) Job {
	return &lifecycle{handler: h, method: "cleanup", run: h.Cleanup}
}
