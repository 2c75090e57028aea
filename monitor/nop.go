package monitor

import (
	"context"
	"io"

	"github.com/viant/phaser/model"
)

type nop struct{}

func (nop) Open(int)               {}
func (nop) Started(string)         {}
func (nop) Finished(string, error) {}
func (nop) Output() io.Writer      { return io.Discard }
func (nop) Close() error           { return nil }

// Nop returns a monitor discarding everything.
func Nop() Monitor { return nop{} }

// NopProvider returns a provider of Nop monitors.
func NopProvider() Provider {
	return ProviderFunc(func(context.Context, *model.Context) (Monitor, error) { return nop{}, nil })
}
