package metrics

import (
	"time"

	"github.com/nanoncore/cpe-southbound/probe"
	"github.com/nanoncore/cpe-southbound/types"
)

// Fanout forwards every event to each collector, e.g. the process-wide
// collector and the one of a single /probe request.
type Fanout []*Collector

func (f Fanout) ObserveConnect(desc *types.ConnectionDescriptor, elapsed time.Duration, err error) {
	for _, c := range f {
		c.ObserveConnect(desc, elapsed, err)
	}
}

func (f Fanout) ObserveCommand(desc *types.ConnectionDescriptor, command string, elapsed time.Duration, err error) {
	for _, c := range f {
		c.ObserveCommand(desc, command, elapsed, err)
	}
}

func (f Fanout) ObserveDisconnect(desc *types.ConnectionDescriptor) {
	for _, c := range f {
		c.ObserveDisconnect(desc)
	}
}

func (f Fanout) ObserveCandidate(capability types.Capability, command string, outcome probe.Outcome) {
	for _, c := range f {
		c.ObserveCandidate(capability, command, outcome)
	}
}

func (f Fanout) ObserveProbe(capability types.Capability, elapsed time.Duration, ok bool) {
	for _, c := range f {
		c.ObserveProbe(capability, elapsed, ok)
	}
}
