// Package progress tracks job counters of a batch run. The tracker travels in
// the context so that every phase monitor of the run feeds the same counters
// without a global registry.
package progress
