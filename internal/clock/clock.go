// Package clock reads the wall clock through a replaceable function.
package clock

import (
	"sync"
	"time"
)

// NowFunc returns the current time; tests replace it with Fixed or Stepping.
var NowFunc = time.Now

// Now returns NowFunc().
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since t according to NowFunc.
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }

// Fixed returns a clock that always reports at.
func Fixed(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// Stepping returns a clock starting at start that advances by step on each read.
func Stepping(start time.Time, step time.Duration) func() time.Time {
	var mux sync.Mutex
	next := start
	return func() time.Time {
		mux.Lock()
		defer mux.Unlock()
		ret := next
		next = next.Add(step)
		return ret
	}
}

// Set replaces NowFunc and returns a function restoring the previous one.
func Set(now func() time.Time) (restore func()) {
	prev := NowFunc
	NowFunc = now
	return func() { NowFunc = prev }
}
