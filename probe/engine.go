// Package probe discovers which CLI dialect a device speaks. For each
// capability it walks an ordered list of candidate commands and returns
// the first response a parser can extract real data from.
package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nanoncore/cpe-southbound/parser"
	"github.com/nanoncore/cpe-southbound/types"
)

// Outcome classifies one candidate attempt
type Outcome string

const (
	OutcomeUsable      Outcome = "usable"
	OutcomeExecFailed  Outcome = "exec_failed"
	OutcomeDeviceError Outcome = "device_error"
	OutcomeEmpty       Outcome = "empty"
	OutcomeNoData      Outcome = "no_data"
)

// Observer receives probe events, typically for metrics
type Observer interface {
	ObserveCandidate(capability types.Capability, command string, outcome Outcome)
	ObserveProbe(capability types.Capability, elapsed time.Duration, ok bool)
}

// ExhaustedError is returned when no candidate produced usable data.
// It matches types.ErrProbeExhausted with errors.Is.
type ExhaustedError struct {
	Capability types.Capability
	Message    string
	Attempts   int
}

func (e *ExhaustedError) Error() string { return e.Message }

func (e *ExhaustedError) Unwrap() error { return types.ErrProbeExhausted }

var exhaustedMessages = map[types.Capability]string{
	types.CapabilityOpticalPower: "Could not read optical power",
	types.CapabilityWiFi:         "Could not read WiFi settings",
	types.CapabilityTraffic:      "Could not read traffic stats",
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers an observer
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

// Engine runs capability probes against any executor
type Engine struct {
	commands types.CommandTable
	logger   *zap.Logger
	observer Observer
}

// NewEngine creates an engine for the given candidate table
func NewEngine(commands types.CommandTable, opts ...Option) *Engine {
	e := &Engine{
		commands: commands,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Commands returns the candidate table in use
func (e *Engine) Commands() types.CommandTable {
	return e.commands
}

// ProbeOpticalPower reads ONT rx/tx optical levels
func (e *Engine) ProbeOpticalPower(ctx context.Context, exec types.Executor) types.Result[types.OpticalPowerReading] {
	return run(ctx, e, exec, types.CapabilityOpticalPower,
		parser.ParseOpticalPower,
		types.OpticalPowerReading.HasData,
		func(r *types.OpticalPowerReading, cmd string) { r.Command = cmd },
	)
}

// ProbeWiFiSettings reads the primary WLAN configuration
func (e *Engine) ProbeWiFiSettings(ctx context.Context, exec types.Executor) types.Result[types.WiFiConfiguration] {
	return run(ctx, e, exec, types.CapabilityWiFi,
		parser.ParseWiFiSettings,
		types.WiFiConfiguration.HasData,
		func(w *types.WiFiConfiguration, cmd string) { w.Command = cmd },
	)
}

// ProbeTrafficStats reads interface byte counters
func (e *Engine) ProbeTrafficStats(ctx context.Context, exec types.Executor) types.Result[types.TrafficCounters] {
	return run(ctx, e, exec, types.CapabilityTraffic,
		parser.ParseTrafficCounters,
		types.TrafficCounters.HasData,
		func(t *types.TrafficCounters, cmd string) { t.Command = cmd },
	)
}

// run is the candidate loop shared by all capabilities. Failed commands,
// empty output, device error replies and unusable parses all fall through
// to the next candidate; the first usable parse wins.
func run[T any](
	ctx context.Context,
	e *Engine,
	exec types.Executor,
	capability types.Capability,
	parse func(string) T,
	usable func(T) bool,
	stamp func(*T, string),
) types.Result[T] {
	start := time.Now()
	commands := e.commands.For(capability)
	log := e.logger.With(zap.String("capability", string(capability)))

	for i, cmd := range commands {
		if err := ctx.Err(); err != nil {
			e.finish(capability, start, false)
			return types.Failure[T](fmt.Errorf("%s probe aborted after %d candidates: %w", capability, i, err))
		}

		res := exec.Execute(ctx, cmd)
		if !res.OK {
			e.candidate(capability, cmd, OutcomeExecFailed)
			log.Debug("candidate failed", zap.String("command", cmd), zap.String("error", res.Error))
			continue
		}

		text := strings.TrimSpace(res.Data)
		if text == "" {
			e.candidate(capability, cmd, OutcomeEmpty)
			log.Debug("candidate returned nothing", zap.String("command", cmd))
			continue
		}
		if devErr := types.ClassifyOutput(text); devErr != nil {
			e.candidate(capability, cmd, OutcomeDeviceError)
			log.Debug("candidate rejected by device", zap.String("command", cmd), zap.String("code", devErr.Code))
			continue
		}

		value := parse(text)
		if !usable(value) {
			e.candidate(capability, cmd, OutcomeNoData)
			log.Debug("candidate output not recognised", zap.String("command", cmd))
			continue
		}

		stamp(&value, cmd)
		e.candidate(capability, cmd, OutcomeUsable)
		e.finish(capability, start, true)
		log.Debug("probe succeeded", zap.String("command", cmd), zap.Int("attempts", i+1))
		return types.Success(value)
	}

	e.finish(capability, start, false)
	log.Debug("probe exhausted", zap.Int("attempts", len(commands)))
	return types.Failure[T](&ExhaustedError{
		Capability: capability,
		Message:    exhaustedMessages[capability],
		Attempts:   len(commands),
	})
}

func (e *Engine) candidate(capability types.Capability, cmd string, outcome Outcome) {
	if e.observer != nil {
		e.observer.ObserveCandidate(capability, cmd, outcome)
	}
}

func (e *Engine) finish(capability types.Capability, start time.Time, ok bool) {
	if e.observer != nil {
		e.observer.ObserveProbe(capability, time.Since(start), ok)
	}
}
