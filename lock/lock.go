// Package lock prevents concurrent runs of the same batch, flow or flow
// execution.
package lock

import (
	"context"
	"fmt"
	"strings"
)

// Scope selects what a lock excludes.
type Scope string

const (
	// ScopeWorld allows one open batch lock at a time.
	ScopeWorld Scope = "world"
	// ScopeBatch allows one open lock per batch id.
	ScopeBatch Scope = "batch"
	// ScopeFlow allows one running flow per batch and flow id.
	ScopeFlow Scope = "flow"
	// ScopeExecution allows one running flow per batch, flow and execution id.
	ScopeExecution Scope = "execution"
)

// ParseScope converts a scope symbol; empty text means ScopeWorld.
func ParseScope(text string) (Scope, error) {
	switch scope := Scope(strings.ToLower(strings.TrimSpace(text))); scope {
	case "":
		return ScopeWorld, nil
	case ScopeWorld, ScopeBatch, ScopeFlow, ScopeExecution:
		return scope, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, text)
}

// Lock is held for a single batch run.
type Lock interface {
	// BeginFlow acquires the flow execution; a flow already begun by this
	// lock is rejected with ErrLocked.
	BeginFlow(ctx context.Context, flowID, executionID string) error
	// EndFlow releases a flow acquired by BeginFlow.
	EndFlow(ctx context.Context, flowID, executionID string) error
	// Close releases everything the lock holds.
	Close(ctx context.Context) error
}

// Provider creates locks.
type Provider interface {
	New(ctx context.Context, batchID string) (Lock, error)
}

// Store holds named lock entries shared by the locks of a provider.
type Store interface {
	// Acquire creates the entry or fails with ErrLocked when it exists.
	Acquire(ctx context.Context, key string, owner *Owner) error
	// Release removes the entry.
	Release(ctx context.Context, key string) error
}

// Owner describes the holder of a lock entry.
type Owner struct {
	BatchID     string `json:"batchId"`
	FlowID      string `json:"flowId,omitempty"`
	ExecutionID string `json:"executionId,omitempty"`
}
