// Package handler binds declared executions to the components that run them.
package handler

import (
	"context"

	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

// Handler runs executions of one kind and manages the infrastructure they need.
type Handler interface {
	// ID identifies the handler; registry ids must be unique.
	ID() string
	// Setup prepares the handler for a flow execution.
	Setup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error
	// Execute runs a resolved execution.
	Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, execution *model.Execution) error
	// Cleanup releases whatever Setup or Execute left behind.
	Cleanup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error
}

// Closer is implemented by handlers holding long lived resources.
type Closer interface {
	Close(ctx context.Context) error
}
