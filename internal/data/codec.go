// internal/data/codec.go
package data

import (
	"encoding/json"
	"fmt"
)

// Encode serializes an event as the flat JSON object clients expect.
// Keys follow struct order: event_id, predicted_appliance, delta_power, hour, confidence.
func Encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event %d: %w", ev.EventID, err)
	}
	return b, nil
}

// Decode is the inverse of Encode. The server never reads client payloads;
// this exists for consumers of the publish taps and for tests.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
