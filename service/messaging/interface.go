// Package messaging defines the queue contract behind phase events.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Vendor names a queue implementation.
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorFS     Vendor = "fs"
)

var (
	// ErrQueueFull is returned by non-blocking queues when no capacity is left.
	ErrQueueFull = errors.New("messaging: queue full")
	// ErrUnsupportedVendor is returned for an unknown vendor name.
	ErrUnsupportedVendor = errors.New("messaging: unsupported vendor")
)

// ParseVendor converts a vendor name, ignoring case and surrounding spaces.
func ParseVendor(text string) (Vendor, error) {
	switch vendor := Vendor(strings.ToLower(strings.TrimSpace(text))); vendor {
	case VendorMemory, VendorFS:
		return vendor, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedVendor, text)
}

// Queue carries payloads of type T.
type Queue[T any] interface {
	Publish(ctx context.Context, t *T) error

	// Consume returns the next message; polling queues return a nil message
	// when empty.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a consumed payload awaiting acknowledgement.
type Message[T any] interface {
	T() *T

	// Ack marks the message processed.
	Ack() error

	// Nack marks processing failed; the queue decides whether to retry.
	Nack(err error) error
}
