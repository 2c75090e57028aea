// Package model holds the immutable batch definition graph (batch, flows,
// phases, executions) and the per-invocation execution context.
//
// A batch is loaded once (see service/dao/batch) and read concurrently by
// every flow task afterwards; nothing in this package mutates a definition
// after Validate succeeds.
package model
