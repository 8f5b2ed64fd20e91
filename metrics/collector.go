// Package metrics instruments CPE sessions and probes with Prometheus and
// exports the last readings of each device as gauges.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nanoncore/cpe-southbound/drivers/cli"
	"github.com/nanoncore/cpe-southbound/probe"
	"github.com/nanoncore/cpe-southbound/types"
)

const namespace = "cpe"

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30}

// Collector bundles the session, probe and reading metrics
type Collector struct {
	Connects        *prometheus.CounterVec
	ConnectDuration *prometheus.HistogramVec
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Disconnects     *prometheus.CounterVec
	Candidates      *prometheus.CounterVec
	Probes          *prometheus.CounterVec
	ProbeDuration   *prometheus.HistogramVec

	OpticalRx      *prometheus.GaugeVec
	OpticalTx      *prometheus.GaugeVec
	OpticalInRange *prometheus.GaugeVec
	WiFiEnabled    *prometheus.GaugeVec
	TrafficBytes   *prometheus.GaugeVec
	ProbeSuccess   *prometheus.GaugeVec
}

var (
	_ cli.SessionObserver = (*Collector)(nil)
	_ probe.Observer      = (*Collector)(nil)
)

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Metrics already registered by an earlier collector
// are shared.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var (
		c   Collector
		err error
	)

	counters := []struct {
		dst    **prometheus.CounterVec
		name   string
		help   string
		labels []string
	}{
		{&c.Connects, "connects_total", "CLI login attempts by family and result.", []string{"family", "result"}},
		{&c.Commands, "commands_total", "CLI commands executed by family and result.", []string{"family", "result"}},
		{&c.Disconnects, "disconnects_total", "CLI sessions closed by family.", []string{"family"}},
		{&c.Candidates, "probe_candidates_total", "Probe candidate commands by capability and outcome.", []string{"capability", "outcome"}},
		{&c.Probes, "probes_total", "Completed probes by capability and result.", []string{"capability", "result"}},
	}
	for _, def := range counters {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      def.name,
			Help:      def.help,
		}, def.labels)
		if *def.dst, err = registerCounterVec(reg, vec, def.name); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst    **prometheus.HistogramVec
		name   string
		help   string
		labels []string
	}{
		{&c.ConnectDuration, "connect_duration_seconds", "Dial plus login latency in seconds.", []string{"family"}},
		{&c.CommandDuration, "command_duration_seconds", "Command round trip latency in seconds.", []string{"family"}},
		{&c.ProbeDuration, "probe_duration_seconds", "Time to walk a capability's candidate list in seconds.", []string{"capability"}},
	}
	for _, def := range histograms {
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      def.name,
			Help:      def.help,
			Buckets:   durationBuckets,
		}, def.labels)
		if *def.dst, err = registerHistogramVec(reg, vec, def.name); err != nil {
			return nil, err
		}
	}

	gauges := []struct {
		dst    **prometheus.GaugeVec
		name   string
		help   string
		labels []string
	}{
		{&c.OpticalRx, "optical_rx_power_dbm", "ONT receive optical power in dBm.", []string{"device"}},
		{&c.OpticalTx, "optical_tx_power_dbm", "ONT transmit optical power in dBm.", []string{"device"}},
		{&c.OpticalInRange, "optical_power_in_range", "1 when both optical levels are inside the family window.", []string{"device"}},
		{&c.WiFiEnabled, "wifi_enabled", "1 when the primary WLAN is enabled.", []string{"device", "ssid", "state"}},
		{&c.TrafficBytes, "traffic_bytes", "Interface byte counters as read from the CLI.", []string{"device", "direction"}},
		{&c.ProbeSuccess, "probe_capability_success", "1 when the last probe of a capability produced data.", []string{"device", "capability"}},
	}
	for _, def := range gauges {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      def.name,
			Help:      def.help,
		}, def.labels)
		if *def.dst, err = registerGaugeVec(reg, vec, def.name); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// ObserveConnect implements cli.SessionObserver
func (c *Collector) ObserveConnect(desc *types.ConnectionDescriptor, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	family := string(desc.Family)
	c.Connects.WithLabelValues(family, connectResult(err)).Inc()
	c.ConnectDuration.WithLabelValues(family).Observe(elapsed.Seconds())
}

// ObserveCommand implements cli.SessionObserver
func (c *Collector) ObserveCommand(desc *types.ConnectionDescriptor, _ string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	family := string(desc.Family)
	c.Commands.WithLabelValues(family, commandResult(err)).Inc()
	c.CommandDuration.WithLabelValues(family).Observe(elapsed.Seconds())
}

// ObserveDisconnect implements cli.SessionObserver
func (c *Collector) ObserveDisconnect(desc *types.ConnectionDescriptor) {
	if c == nil {
		return
	}
	c.Disconnects.WithLabelValues(string(desc.Family)).Inc()
}

// ObserveCandidate implements probe.Observer
func (c *Collector) ObserveCandidate(capability types.Capability, _ string, outcome probe.Outcome) {
	if c == nil {
		return
	}
	c.Candidates.WithLabelValues(string(capability), string(outcome)).Inc()
}

// ObserveProbe implements probe.Observer
func (c *Collector) ObserveProbe(capability types.Capability, elapsed time.Duration, ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "exhausted"
	}
	c.Probes.WithLabelValues(string(capability), result).Inc()
	c.ProbeDuration.WithLabelValues(string(capability)).Observe(elapsed.Seconds())
}

// RecordSnapshot exports the readings of one device. Values that could not
// be read are left out rather than reported as zero.
func (c *Collector) RecordSnapshot(device string, family types.Family, snap probe.Snapshot) {
	if c == nil {
		return
	}

	c.ProbeSuccess.WithLabelValues(device, string(types.CapabilityOpticalPower)).Set(boolToFloat(snap.Optical.OK))
	c.ProbeSuccess.WithLabelValues(device, string(types.CapabilityWiFi)).Set(boolToFloat(snap.WiFi.OK))
	c.ProbeSuccess.WithLabelValues(device, string(types.CapabilityTraffic)).Set(boolToFloat(snap.Traffic.OK))

	if snap.Optical.OK {
		reading := snap.Optical.Data
		if reading.RxPowerDBm != nil {
			c.OpticalRx.WithLabelValues(device).Set(*reading.RxPowerDBm)
		}
		if reading.TxPowerDBm != nil {
			c.OpticalTx.WithLabelValues(device).Set(*reading.TxPowerDBm)
		}
		if inRange, known := reading.WithinSpec(family); known {
			c.OpticalInRange.WithLabelValues(device).Set(boolToFloat(inRange))
		}
	}

	if snap.WiFi.OK {
		wifi := snap.WiFi.Data
		c.WiFiEnabled.WithLabelValues(device, wifi.SSID, string(wifi.State)).Set(boolToFloat(wifi.Enabled))
	}

	if snap.Traffic.OK {
		c.TrafficBytes.WithLabelValues(device, "in").Set(float64(snap.Traffic.Data.BytesIn))
		c.TrafficBytes.WithLabelValues(device, "out").Set(float64(snap.Traffic.Data.BytesOut))
	}
}

func connectResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, types.ErrConnectTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func commandResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrCommandTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
