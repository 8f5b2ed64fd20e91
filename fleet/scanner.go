// Package fleet runs one complete device interaction (connect, probe,
// disconnect) against many CPEs concurrently, with a bound on open
// sessions and a paced dial rate.
package fleet

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	southbound "github.com/nanoncore/cpe-southbound"
	"github.com/nanoncore/cpe-southbound/probe"
	"github.com/nanoncore/cpe-southbound/types"
)

// Status summarises one device after a scan
type Status string

const (
	// StatusOK means every capability was read
	StatusOK Status = "ok"

	// StatusPartial means some capabilities were read
	StatusPartial Status = "partial"

	// StatusUnknown means the device answered but nothing could be read
	StatusUnknown Status = "unknown"

	// StatusUnreachable means the session could not be opened
	StatusUnreachable Status = "unreachable"

	// StatusInvalid means the target could not be turned into a client
	StatusInvalid Status = "invalid"
)

// Target is one device to scan
type Target struct {
	Name       string
	Descriptor *types.ConnectionDescriptor
	Options    []southbound.ClientOption
}

// Report is the outcome of scanning one target
type Report struct {
	Name     string         `json:"name"`
	Family   types.Family   `json:"family"`
	Status   Status         `json:"status"`
	Snapshot probe.Snapshot `json:"snapshot"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Option configures a Scanner
type Option func(*Scanner)

// WithConcurrency bounds the number of sessions open at once
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDialRate paces new connections. A non-positive rate disables pacing.
func WithDialRate(perSecond float64, burst int) Option {
	return func(s *Scanner) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClientOptions applies opts to every client before the target's own
func WithClientOptions(opts ...southbound.ClientOption) Option {
	return func(s *Scanner) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithReportHook is called with each report as soon as it is ready
func WithReportHook(hook func(Report)) Option {
	return func(s *Scanner) {
		s.hook = hook
	}
}

// Scanner probes many devices in parallel. Each device gets its own
// session; sessions are never shared.
type Scanner struct {
	concurrency int
	limiter     *rate.Limiter
	logger      *zap.Logger
	clientOpts  []southbound.ClientOption
	hook        func(Report)
}

// NewScanner creates a scanner; the defaults are 16 sessions and 10 dials
// per second.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		concurrency: 16,
		limiter:     rate.NewLimiter(10, 4),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan probes every target and returns one report per target, in input
// order. Targets not started before ctx ends are reported unreachable
// and the context error is returned alongside the reports.
func (s *Scanner) Scan(ctx context.Context, targets []Target) ([]Report, error) {
	reports := make([]Report, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				reports[i] = s.finish(Report{
					Name:   target.Name,
					Family: familyOf(target),
					Status: StatusUnreachable,
					Error:  err.Error(),
				})
				return nil
			}
			reports[i] = s.finish(s.scanOne(gctx, target))
			return nil
		})
	}

	// scan goroutines never fail; errors live in the reports
	_ = g.Wait()

	return reports, ctx.Err()
}

func (s *Scanner) finish(r Report) Report {
	if s.hook != nil {
		s.hook(r)
	}
	return r
}

func (s *Scanner) scanOne(ctx context.Context, target Target) Report {
	start := time.Now()
	report := Report{Name: target.Name, Family: familyOf(target)}
	log := s.logger.With(zap.String("target", target.Name))

	opts := append(append([]southbound.ClientOption{southbound.WithLogger(log)}, s.clientOpts...), target.Options...)
	client, err := southbound.NewClient(target.Descriptor, opts...)
	if err != nil {
		log.Error("invalid target", zap.Error(err))
		report.Status = StatusInvalid
		report.Error = err.Error()
		report.Duration = time.Since(start)
		return report
	}

	snap, err := client.Collect(ctx)
	report.Duration = time.Since(start)
	if err != nil {
		log.Warn("device unreachable", zap.Error(err))
		report.Status = StatusUnreachable
		report.Error = err.Error()
		return report
	}

	report.Snapshot = snap
	report.Status = statusOf(snap)
	if report.Status == StatusUnknown {
		report.Error = errors.Join(snap.Optical.Err(), snap.WiFi.Err(), snap.Traffic.Err()).Error()
	}
	log.Debug("device scanned", zap.String("status", string(report.Status)), zap.Duration("elapsed", report.Duration))
	return report
}

func statusOf(snap probe.Snapshot) Status {
	switch {
	case snap.Optical.OK && snap.WiFi.OK && snap.Traffic.OK:
		return StatusOK
	case snap.AnyOK():
		return StatusPartial
	default:
		return StatusUnknown
	}
}

func familyOf(t Target) types.Family {
	if t.Descriptor == nil {
		return ""
	}
	return t.Descriptor.Family
}

// Summary counts reports per status
func Summary(reports []Report) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range reports {
		counts[r.Status]++
	}
	return counts
}
