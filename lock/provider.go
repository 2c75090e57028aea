package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Keyed is a Provider mapping scopes to Store entries.
type Keyed struct {
	scope Scope
	store Store
}

// New creates a provider over store.
func New(scope Scope, store Store) *Keyed {
	return &Keyed{scope: scope, store: store}
}

func (p *Keyed) New(ctx context.Context, batchID string) (Lock, error) {
	ret := &keyedLock{provider: p, batchID: batchID, flows: map[string]string{}}
	switch p.scope {
	case ScopeWorld:
		ret.key = "world"
	case ScopeBatch:
		ret.key = "batch-" + batchID
	}
	if ret.key != "" {
		if err := p.store.Acquire(ctx, ret.key, &Owner{BatchID: batchID}); err != nil {
			return nil, fmt.Errorf("failed to lock batch %s: %w", batchID, err)
		}
	}
	return ret, nil
}

type keyedLock struct {
	provider *Keyed
	batchID  string
	key      string
	mux      sync.Mutex
	flows    map[string]string
	closed   bool
}

func (l *keyedLock) BeginFlow(ctx context.Context, flowID, executionID string) error {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, ok := l.flows[flowID]; ok {
		return fmt.Errorf("%w: flow %s of batch %s", ErrLocked, flowID, l.batchID)
	}
	if key := l.flowKey(flowID, executionID); key != "" {
		owner := &Owner{BatchID: l.batchID, FlowID: flowID, ExecutionID: executionID}
		if err := l.provider.store.Acquire(ctx, key, owner); err != nil {
			return fmt.Errorf("failed to lock flow %s of batch %s: %w", flowID, l.batchID, err)
		}
	}
	l.flows[flowID] = executionID
	return nil
}

func (l *keyedLock) EndFlow(ctx context.Context, flowID, executionID string) error {
	l.mux.Lock()
	defer l.mux.Unlock()
	begun, ok := l.flows[flowID]
	if !ok || begun != executionID {
		return fmt.Errorf("%w: flow %s (execution %s) of batch %s", ErrNotLocked, flowID, executionID, l.batchID)
	}
	delete(l.flows, flowID)
	if key := l.flowKey(flowID, executionID); key != "" {
		return l.provider.store.Release(ctx, key)
	}
	return nil
}

func (l *keyedLock) Close(ctx context.Context) error {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	var errs []error
	flowIDs := make([]string, 0, len(l.flows))
	for flowID := range l.flows {
		flowIDs = append(flowIDs, flowID)
	}
	sort.Strings(flowIDs)
	for _, flowID := range flowIDs {
		if key := l.flowKey(flowID, l.flows[flowID]); key != "" {
			if err := l.provider.store.Release(ctx, key); err != nil {
				errs = append(errs, err)
			}
		}
	}
	l.flows = map[string]string{}
	if l.key != "" {
		if err := l.provider.store.Release(ctx, l.key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *keyedLock) flowKey(flowID, executionID string) string {
	switch l.provider.scope {
	case ScopeFlow:
		return "flow-" + l.batchID + "-" + flowID
	case ScopeExecution:
		return "execution-" + l.batchID + "-" + flowID + "-" + executionID
	}
	return ""
}
