// Package publish mirrors streamed events to external telemetry sinks.
//
// Taps are best effort: a failed publish is reported to the caller, which
// logs and counts it, but never ends the websocket stream that produced it.
package publish

import (
	"context"
	"errors"
	"fmt"

	"nilm-live/internal/data"
)

// Publisher forwards one streamed event to a sink.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, ev data.Event) error
	Close() error
}

// Named is implemented by publishers that report a sink label for metrics.
type Named interface {
	Name() string
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, data.Event) error { return nil }
func (Nop) Close() error                                      { return nil }
func (Nop) Name() string                                      { return "nop" }

// Multi fans out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, sessionID string, ev data.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, sessionID, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", NameOf(p), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", NameOf(p), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Name() string { return "multi" }

// NameOf returns the sink label of p, or "unknown".
func NameOf(p Publisher) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return "unknown"
}
