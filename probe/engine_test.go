package probe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nanoncore/cpe-southbound/types"
)

// scriptedExecutor replays canned outputs and records the command sequence
type scriptedExecutor struct {
	outputs  map[string]string
	failures map[string]error
	commands []string
}

func (s *scriptedExecutor) Execute(_ context.Context, command string) types.Result[string] {
	s.commands = append(s.commands, command)
	if err, ok := s.failures[command]; ok {
		return types.Failure[string](err)
	}
	if out, ok := s.outputs[command]; ok {
		return types.Success(out)
	}
	return types.Failure[string](errors.New("no scripted output"))
}

func (s *scriptedExecutor) calls(command string) int {
	n := 0
	for _, c := range s.commands {
		if c == command {
			n++
		}
	}
	return n
}

func TestProbeFirstUsableWins(t *testing.T) {
	exec := &scriptedExecutor{
		failures: map[string]error{"cmdA": types.ErrCommandTimeout},
		outputs: map[string]string{
			"cmdB": "ONT status: online",
			"cmdC": "Rx optical power: -21.30 dBm\nTx optical power: 2.10 dBm",
			"cmdD": "Rx power: -10.00 dBm",
		},
	}
	engine := NewEngine(types.CommandTable{
		OpticalPower: []string{"cmdA", "cmdB", "cmdC", "cmdD"},
	}, WithLogger(zaptest.NewLogger(t)))

	res := engine.ProbeOpticalPower(context.Background(), exec)

	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.Data.RxPowerDBm)
	assert.InDelta(t, -21.30, *res.Data.RxPowerDBm, 1e-9)
	assert.Equal(t, "cmdC", res.Data.Command)
	assert.Equal(t, []string{"cmdA", "cmdB", "cmdC"}, exec.commands)
	assert.Zero(t, exec.calls("cmdD"))
}

func TestProbeSkipsDeviceErrorsAndEmptyOutput(t *testing.T) {
	exec := &scriptedExecutor{
		outputs: map[string]string{
			"show wlan":         "% Unknown command.",
			"display wlan":      "   ",
			"uci show wireless": "wireless.default_radio0.ssid='OpenWrt'\nwireless.default_radio0.key='hunter22'",
		},
	}
	engine := NewEngine(types.CommandTable{
		WiFi: []string{"show wlan", "display wlan", "uci show wireless"},
	})

	res := engine.ProbeWiFiSettings(context.Background(), exec)

	require.True(t, res.OK, res.Error)
	assert.Equal(t, "OpenWrt", res.Data.SSID)
	assert.Equal(t, "hunter22", res.Data.Passphrase)
	assert.Equal(t, "uci show wireless", res.Data.Command)
}

func TestProbeExhausted(t *testing.T) {
	tests := []struct {
		name       string
		capability types.Capability
		probe      func(*Engine, types.Executor) (bool, string, error)
		message    string
	}{
		{
			name:       "optical",
			capability: types.CapabilityOpticalPower,
			probe: func(e *Engine, x types.Executor) (bool, string, error) {
				r := e.ProbeOpticalPower(context.Background(), x)
				return r.OK, r.Error, r.Cause
			},
			message: "Could not read optical power",
		},
		{
			name:       "wifi",
			capability: types.CapabilityWiFi,
			probe: func(e *Engine, x types.Executor) (bool, string, error) {
				r := e.ProbeWiFiSettings(context.Background(), x)
				return r.OK, r.Error, r.Cause
			},
			message: "Could not read WiFi settings",
		},
		{
			name:       "traffic",
			capability: types.CapabilityTraffic,
			probe: func(e *Engine, x types.Executor) (bool, string, error) {
				r := e.ProbeTrafficStats(context.Background(), x)
				return r.OK, r.Error, r.Cause
			},
			message: "Could not read traffic stats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &scriptedExecutor{
				outputs: map[string]string{
					"one": "nothing useful here",
					"two": "RX 0 bytes / TX 0 bytes",
				},
			}
			engine := NewEngine(types.CommandTable{
				OpticalPower: []string{"one", "two", "three"},
				WiFi:         []string{"one", "two", "three"},
				Traffic:      []string{"one", "two", "three"},
			})

			ok, msg, cause := tt.probe(engine, exec)

			assert.False(t, ok)
			assert.Equal(t, tt.message, msg)
			assert.ErrorIs(t, cause, types.ErrProbeExhausted)
			var exhausted *ExhaustedError
			require.ErrorAs(t, cause, &exhausted)
			assert.Equal(t, tt.capability, exhausted.Capability)
			assert.Equal(t, 3, exhausted.Attempts)
			assert.Equal(t, []string{"one", "two", "three"}, exec.commands)
		})
	}
}

func TestProbeNoCandidates(t *testing.T) {
	exec := &scriptedExecutor{}
	res := NewEngine(types.CommandTable{}).ProbeTrafficStats(context.Background(), exec)

	assert.False(t, res.OK)
	assert.Equal(t, "Could not read traffic stats", res.Error)
	assert.Empty(t, exec.commands)
}

func TestProbeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &cancellingExecutor{cancel: cancel}
	engine := NewEngine(types.CommandTable{
		Traffic: []string{"first", "second", "third"},
	})

	res := engine.ProbeTrafficStats(ctx, exec)

	require.False(t, res.OK)
	assert.ErrorIs(t, res.Cause, context.Canceled)
	assert.Equal(t, []string{"first"}, exec.commands)
}

type cancellingExecutor struct {
	cancel   context.CancelFunc
	commands []string
}

func (c *cancellingExecutor) Execute(_ context.Context, command string) types.Result[string] {
	c.commands = append(c.commands, command)
	c.cancel()
	return types.Failure[string](context.Canceled)
}

func TestProbeNotConnectedExhausts(t *testing.T) {
	exec := &scriptedExecutor{failures: map[string]error{
		"display optic": types.ErrNotConnected,
		"show optical":  types.ErrNotConnected,
	}}
	engine := NewEngine(types.CommandTable{OpticalPower: []string{"display optic", "show optical"}})

	res := engine.ProbeOpticalPower(context.Background(), exec)

	assert.False(t, res.OK)
	assert.Equal(t, "Could not read optical power", res.Error)
}

type countingObserver struct {
	mu         sync.Mutex
	candidates map[Outcome]int
	probes     map[types.Capability]bool
}

func (o *countingObserver) ObserveCandidate(_ types.Capability, _ string, outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.candidates[outcome]++
}

func (o *countingObserver) ObserveProbe(capability types.Capability, _ time.Duration, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.probes[capability] = ok
}

func TestProbeAllWithObserver(t *testing.T) {
	exec := &scriptedExecutor{
		outputs: map[string]string{
			"display optic":    "RxPower(dBm) : -19.62\nTxPower(dBm) : 2.31",
			"display wlan":     "% Unknown command.",
			"show wlan":        "SSID: Office\nPassword: s3cret\nStatus: enabled",
			"display ont info": "",
		},
	}
	obs := &countingObserver{candidates: map[Outcome]int{}, probes: map[types.Capability]bool{}}
	engine := NewEngine(types.CommandTable{
		OpticalPower: []string{"display optic"},
		WiFi:         []string{"display wlan", "show wlan"},
		Traffic:      []string{"display ont info"},
	}, WithObserver(obs))

	snap := engine.ProbeAll(context.Background(), exec)

	assert.True(t, snap.AnyOK())
	assert.True(t, snap.Optical.OK)
	assert.True(t, snap.WiFi.OK)
	assert.Equal(t, "Office", snap.WiFi.Data.SSID)
	assert.Equal(t, types.WiFiStateEnabled, snap.WiFi.Data.State)
	assert.False(t, snap.Traffic.OK)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 2, obs.candidates[OutcomeUsable])
	assert.Equal(t, 1, obs.candidates[OutcomeDeviceError])
	assert.Equal(t, 1, obs.candidates[OutcomeEmpty])
	assert.Equal(t, map[types.Capability]bool{
		types.CapabilityOpticalPower: true,
		types.CapabilityWiFi:         true,
		types.CapabilityTraffic:      false,
	}, obs.probes)
}
