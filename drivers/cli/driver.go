// Package cli implements the CPE connection manager: a telnet (or SSH)
// transport driven through google/goexpect, with prompt negotiation,
// pager handling and per-command timeouts.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

const (
	// DefaultConnectTimeout bounds dial plus login handshake
	DefaultConnectTimeout = 10 * time.Second

	// DefaultCommandTimeout bounds a single command's wait for the prompt
	DefaultCommandTimeout = 15 * time.Second
)

// SessionProfile carries the CLI conventions of a device family
type SessionProfile struct {
	// Prompts overrides individual default patterns; nil fields keep the default
	Prompts Prompts

	// PagerCommand disables paging after login (e.g. "screen-length 0 temporary")
	PagerCommand string

	// LogoutCommand is sent best-effort on Disconnect
	LogoutCommand string

	// LoginSuffix is appended to the username (RouterOS "+ct" turns off colors)
	LoginSuffix string
}

// SessionObserver receives lifecycle events, typically for metrics
type SessionObserver interface {
	ObserveConnect(desc *types.ConnectionDescriptor, elapsed time.Duration, err error)
	ObserveCommand(desc *types.ConnectionDescriptor, command string, elapsed time.Duration, err error)
	ObserveDisconnect(desc *types.ConnectionDescriptor)
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithCommandTimeout sets the per-command timeout
func WithCommandTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.commandTimeout = timeout
		}
	}
}

// WithConnectTimeout sets the dial plus login timeout
func WithConnectTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.connectTimeout = timeout
		}
	}
}

// WithPrompts overrides prompt patterns on top of the profile
func WithPrompts(prompts Prompts) Option {
	return func(d *Driver) {
		d.prompts = prompts
	}
}

// WithProfile sets the family CLI conventions
func WithProfile(profile SessionProfile) Option {
	return func(d *Driver) {
		d.profile = profile
	}
}

// WithObserver registers a lifecycle observer
func WithObserver(observer SessionObserver) Option {
	return func(d *Driver) {
		d.observer = observer
	}
}

// WithMaxConsecutiveTimeouts closes the session after n command timeouts in
// a row. Zero keeps the session open regardless.
func WithMaxConsecutiveTimeouts(n int) Option {
	return func(d *Driver) {
		if n >= 0 {
			d.maxTimeouts = n
		}
	}
}

type dialFunc func(ctx context.Context, desc *types.ConnectionDescriptor, timeout time.Duration) (io.ReadWriteCloser, error)

// Driver is the connection manager for one device. It owns at most one
// session and serializes commands on it.
type Driver struct {
	mu sync.Mutex

	desc           *types.ConnectionDescriptor
	profile        SessionProfile
	prompts        Prompts
	logger         *zap.Logger
	observer       SessionObserver
	connectTimeout time.Duration
	commandTimeout time.Duration
	maxTimeouts    int
	dial           dialFunc

	session  *ExpectSession
	timeouts int
}

var _ types.Session = (*Driver)(nil)

// NewDriver creates a disconnected driver for desc. The descriptor is
// copied; later changes by the caller have no effect.
func NewDriver(desc *types.ConnectionDescriptor, opts ...Option) (*Driver, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		desc:           desc.Clone(),
		logger:         zap.NewNop(),
		connectTimeout: DefaultConnectTimeout,
		commandTimeout: DefaultCommandTimeout,
		dial:           dialTransport,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("device", d.desc.String()), zap.String("family", string(d.desc.Family)))
	return d, nil
}

func dialTransport(ctx context.Context, desc *types.ConnectionDescriptor, timeout time.Duration) (io.ReadWriteCloser, error) {
	if desc.EffectiveTransport() == types.TransportSSH {
		return dialSSH(ctx, desc, timeout)
	}
	return dialTelnet(ctx, desc.Address(), timeout)
}

// Connect opens the transport and logs in. A nil desc reuses the
// descriptor the driver was built with. Connecting an already connected
// driver is a no-op.
func (d *Driver) Connect(ctx context.Context, desc *types.ConnectionDescriptor) types.Result[struct{}] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		if d.session.Alive() {
			return types.Success(struct{}{})
		}
		d.teardown()
	}

	if desc != nil {
		if err := desc.Validate(); err != nil {
			return types.Failure[struct{}](err)
		}
		d.desc = desc.Clone()
	}

	start := time.Now()
	session, err := d.open(ctx)
	if d.observer != nil {
		d.observer.ObserveConnect(d.desc, time.Since(start), err)
	}
	if err != nil {
		d.logger.Warn("connect failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return types.Failure[struct{}](err)
	}

	d.session = session
	d.timeouts = 0
	d.logger.Info("connected", zap.String("transport", string(d.desc.EffectiveTransport())), zap.Duration("elapsed", time.Since(start)))
	return types.Success(struct{}{})
}

func (d *Driver) open(ctx context.Context) (*ExpectSession, error) {
	prompts, err := d.resolvePrompts()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.connectTimeout)
	defer cancel()

	conn, err := d.dial(ctx, d.desc, d.connectTimeout)
	if err != nil {
		return nil, err
	}

	return NewExpectSession(ctx, ExpectSessionConfig{
		Conn:           conn,
		Username:       d.desc.Username + d.profile.LoginSuffix,
		Password:       d.desc.Password,
		Timeout:        d.connectTimeout,
		PagerCommand:   d.profile.PagerCommand,
		CommandTimeout: d.effectiveCommandTimeout(),
		Prompts:        prompts,
		Logger:         d.logger,
	})
}

// resolvePrompts layers descriptor metadata over WithPrompts over the profile
func (d *Driver) resolvePrompts() (Prompts, error) {
	prompts := d.prompts.merge(d.profile.Prompts)

	var meta Prompts
	for _, o := range []struct {
		key    string
		target **regexp.Regexp
	}{
		{common.MetaPrompt, &meta.Shell},
		{common.MetaLoginPrompt, &meta.Login},
		{common.MetaPasswordPrompt, &meta.Password},
	} {
		raw, ok := common.MetadataString(d.desc.Metadata, o.key)
		if !ok {
			continue
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return Prompts{}, fmt.Errorf("%w: metadata %s: %v", types.ErrInvalidDescriptor, o.key, err)
		}
		*o.target = re
	}
	return meta.merge(prompts), nil
}

func (d *Driver) effectiveCommandTimeout() time.Duration {
	if t, ok := common.MetadataDuration(d.desc.Metadata, common.MetaCommandTimeout); ok {
		return t
	}
	return d.commandTimeout
}

// Execute sends one command and returns its output. It fails with
// "Not connected" without touching the network when no session is open
// or the peer has already closed it.
// A timeout fails only the command; a dead transport ends the session.
func (d *Driver) Execute(ctx context.Context, command string) types.Result[string] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return types.Failure[string](types.ErrNotConnected)
	}
	if !d.session.Alive() {
		d.logger.Warn("session closed by peer", zap.String("command", command))
		d.teardown()
		return types.Failure[string](types.ErrNotConnected)
	}

	start := time.Now()
	output, err := d.session.Execute(ctx, command, d.effectiveCommandTimeout())
	if d.observer != nil {
		d.observer.ObserveCommand(d.desc, command, time.Since(start), err)
	}
	if err == nil {
		d.timeouts = 0
		d.logger.Debug("command done", zap.String("command", command), zap.Int("bytes", len(output)))
		return types.Success(output)
	}

	switch {
	case !d.session.Alive():
		d.logger.Warn("session lost", zap.String("command", command), zap.Error(err))
		d.teardown()
	case errors.Is(err, types.ErrCommandTimeout):
		d.timeouts++
		d.logger.Debug("command timed out", zap.String("command", command), zap.Int("consecutive", d.timeouts))
		if d.maxTimeouts > 0 && d.timeouts >= d.maxTimeouts {
			d.logger.Warn("closing unresponsive session", zap.Int("consecutive_timeouts", d.timeouts))
			d.teardown()
			err = fmt.Errorf("%w (session closed after %d consecutive timeouts)", err, d.maxTimeouts)
		}
	}
	return types.Failure[string](err)
}

// Disconnect logs out and closes the session. Errors are swallowed and the
// driver always ends disconnected.
func (d *Driver) Disconnect(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return
	}
	if d.profile.LogoutCommand != "" && d.session.Alive() {
		_ = d.session.Send(d.profile.LogoutCommand)
	}
	d.teardown()
	d.logger.Info("disconnected")
}

// teardown closes the session; callers hold mu
func (d *Driver) teardown() {
	if d.session == nil {
		return
	}
	if err := d.session.Close(); err != nil {
		d.logger.Debug("close failed", zap.Error(err))
	}
	d.session = nil
	d.timeouts = 0
	if d.observer != nil {
		d.observer.ObserveDisconnect(d.desc)
	}
}

// TestConnection verifies the device accepts the credentials. A driver
// that is already connected reports success and stays connected.
func (d *Driver) TestConnection(ctx context.Context) types.Result[types.ConnectionCheck] {
	if d.IsConnected() {
		return types.Success(types.ConnectionCheck{Message: "Connection successful"})
	}
	if res := d.Connect(ctx, nil); !res.OK {
		return types.Failure[types.ConnectionCheck](res.Cause)
	}
	d.Disconnect(ctx)
	return types.Success(types.ConnectionCheck{Message: "Connection successful"})
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session != nil && d.session.Alive()
}

// Descriptor returns a copy of the current descriptor
func (d *Driver) Descriptor() *types.ConnectionDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.desc.Clone()
}
