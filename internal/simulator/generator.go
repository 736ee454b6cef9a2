// internal/simulator/generator.go
package simulator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"nilm-live/internal/data"
)

const (
	minConfidence = 0.85
	maxConfidence = 0.98
	hoursPerDay   = 24
)

// Source is the randomness a Generator draws from. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// NewSource returns a PCG-backed source. A zero seed picks a random one,
// so every connection gets its own sequence.
func NewSource(seed uint64) Source {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Generator builds synthetic smart plug events. It is not safe for
// concurrent use; each connection owns one.
type Generator struct {
	appliances []data.Appliance
	rnd        Source
}

func NewGenerator(appliances []data.Appliance, rnd Source) (*Generator, error) {
	if rnd == nil {
		return nil, errors.New("simulator: nil randomness source")
	}
	if len(appliances) == 0 {
		return nil, errors.New("simulator: empty appliance table")
	}
	seen := make(map[string]bool, len(appliances))
	for _, a := range appliances {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("simulator: %w", err)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("simulator: duplicate appliance %q", a.Name)
		}
		seen[a.Name] = true
	}
	table := make([]data.Appliance, len(appliances))
	copy(table, appliances)
	return &Generator{appliances: table, rnd: rnd}, nil
}

// Next draws one event carrying the given id.
func (g *Generator) Next(id uint64) data.Event {
	a := g.appliances[g.rnd.IntN(len(g.appliances))]
	return data.Event{
		EventID:            id,
		PredictedAppliance: a.Name,
		DeltaPower:         a.Min + g.rnd.IntN(a.Max-a.Min+1),
		Hour:               g.rnd.IntN(hoursPerDay),
		Confidence:         round2(minConfidence + g.rnd.Float64()*(maxConfidence-minConfidence)),
	}
}

// Appliances returns a copy of the generator's label table.
func (g *Generator) Appliances() []data.Appliance {
	out := make([]data.Appliance, len(g.appliances))
	copy(out, g.appliances)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
