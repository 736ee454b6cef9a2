// internal/data/models.go
package data

import (
	"errors"
	"fmt"
	"time"
)

// Event - One synthetic power-change record pushed to a client
type Event struct {
	EventID            uint64  `json:"event_id"`
	PredictedAppliance string  `json:"predicted_appliance"`
	DeltaPower         int     `json:"delta_power"` // watts
	Hour               int     `json:"hour"`
	Confidence         float64 `json:"confidence"`
}

// Appliance - A named device category and its inclusive delta_power range
type Appliance struct {
	Name string `mapstructure:"name" json:"name"`
	Min  int    `mapstructure:"min" json:"min"`
	Max  int    `mapstructure:"max" json:"max"`
}

// Validate reports whether the appliance can bound a power delta.
func (a Appliance) Validate() error {
	if a.Name == "" {
		return errors.New("appliance name is empty")
	}
	if a.Min < 0 {
		return fmt.Errorf("appliance %s: negative min %d", a.Name, a.Min)
	}
	if a.Min > a.Max {
		return fmt.Errorf("appliance %s: min %d above max %d", a.Name, a.Min, a.Max)
	}
	return nil
}

// Contains reports whether watts falls inside the closed range.
func (a Appliance) Contains(watts int) bool {
	return watts >= a.Min && watts <= a.Max
}

// DefaultAppliances returns the smart plug's built-in label table.
func DefaultAppliances() []Appliance {
	return []Appliance{
		{Name: "Fan", Min: 60, Max: 120},
		{Name: "Light", Min: 20, Max: 40},
		{Name: "AC", Min: 1200, Max: 1800},
		{Name: "Fridge", Min: 100, Max: 250},
		{Name: "Mixer", Min: 300, Max: 600},
	}
}

// Session - Summary of one finished streaming connection
type Session struct {
	ID             string    `json:"id"`
	RemoteAddr     string    `json:"remote_addr"`
	ConnectedAt    time.Time `json:"connected_at"`
	DisconnectedAt time.Time `json:"disconnected_at"`
	EventsSent     uint64    `json:"events_sent"`
	Reason         string    `json:"reason,omitempty"` // why the stream ended
}
