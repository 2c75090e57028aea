// Package idgen generates identifiers for flow executions.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier. Override in tests to stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier produced by NewFunc.
func New() string { return NewFunc() }

// Sequence returns a generator producing prefix-1, prefix-2, ... in call order.
func Sequence(prefix string) func() string {
	var counter int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(atomic.AddInt64(&counter, 1), 10)
	}
}
