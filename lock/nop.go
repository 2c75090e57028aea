package lock

import "context"

type nopStore struct{}

func (nopStore) Acquire(context.Context, string, *Owner) error { return nil }
func (nopStore) Release(context.Context, string) error         { return nil }

// Nop returns a provider whose locks only reject re-entrant flows.
func Nop() *Keyed {
	return New(ScopeExecution, nopStore{})
}
