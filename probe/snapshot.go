package probe

import (
	"context"
	"time"

	"github.com/nanoncore/cpe-southbound/types"
)

// Snapshot is the outcome of all three probes run on one session
type Snapshot struct {
	Optical  types.Result[types.OpticalPowerReading] `json:"optical"`
	WiFi     types.Result[types.WiFiConfiguration]   `json:"wifi"`
	Traffic  types.Result[types.TrafficCounters]     `json:"traffic"`
	Duration time.Duration                           `json:"duration"`
}

// AnyOK reports whether at least one capability was read
func (s Snapshot) AnyOK() bool {
	return s.Optical.OK || s.WiFi.OK || s.Traffic.OK
}

// ProbeAll runs the optical, WiFi and traffic probes in sequence on the
// same executor. Each probe fails independently.
func (e *Engine) ProbeAll(ctx context.Context, exec types.Executor) Snapshot {
	start := time.Now()
	snap := Snapshot{
		Optical: e.ProbeOpticalPower(ctx, exec),
		WiFi:    e.ProbeWiFiSettings(ctx, exec),
		Traffic: e.ProbeTrafficStats(ctx, exec),
	}
	snap.Duration = time.Since(start)
	return snap
}
