// internal/simulator/stream.go
package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nilm-live/internal/data"
)

// DefaultInterval is the smart meter reporting period.
const DefaultInterval = 2 * time.Second

// EventWriter delivers one event to a peer. A non-nil error means the
// peer is gone.
type EventWriter interface {
	WriteEvent(ev data.Event) error
}

// Run pushes one event immediately and then one per interval until a write
// fails or ctx is done. It returns how many events were written.
//
// A write failure is returned wrapped and is never retried.
func Run(ctx context.Context, gen *Generator, w EventWriter, interval time.Duration) (uint64, error) {
	if interval <= 0 {
		return 0, errors.New("simulator: interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sent uint64
	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := w.WriteEvent(gen.Next(sent)); err != nil {
			return sent, fmt.Errorf("write event %d: %w", sent, err)
		}
		sent++

		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-ticker.C:
		}
	}
}
