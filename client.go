package southbound

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nanoncore/cpe-southbound/drivers/cli"
	"github.com/nanoncore/cpe-southbound/probe"
	"github.com/nanoncore/cpe-southbound/types"
)

type clientOptions struct {
	logger          *zap.Logger
	connectTimeout  time.Duration
	commandTimeout  time.Duration
	maxTimeouts     int
	prompts         cli.Prompts
	commands        types.CommandTable
	sessionObserver cli.SessionObserver
	probeObserver   probe.Observer
	session         Session
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

// WithLogger sets the logger used by the session and the probe engine
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConnectTimeout bounds dial plus login
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) { o.connectTimeout = timeout }
}

// WithCommandTimeout bounds each command
func WithCommandTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) { o.commandTimeout = timeout }
}

// WithMaxConsecutiveTimeouts closes the session after n timeouts in a row
func WithMaxConsecutiveTimeouts(n int) ClientOption {
	return func(o *clientOptions) { o.maxTimeouts = n }
}

// WithPrompts overrides prompt patterns of the family profile
func WithPrompts(prompts cli.Prompts) ClientOption {
	return func(o *clientOptions) { o.prompts = prompts }
}

// WithCommands overrides probe candidates per capability. Capabilities
// left empty keep the family defaults.
func WithCommands(commands types.CommandTable) ClientOption {
	return func(o *clientOptions) { o.commands = commands }
}

// WithSessionObserver receives connect/command/disconnect events
func WithSessionObserver(observer cli.SessionObserver) ClientOption {
	return func(o *clientOptions) { o.sessionObserver = observer }
}

// WithProbeObserver receives candidate and probe outcomes
func WithProbeObserver(observer probe.Observer) ClientOption {
	return func(o *clientOptions) { o.probeObserver = observer }
}

// WithSession replaces the connection manager, typically with a simulator
func WithSession(session Session) ClientOption {
	return func(o *clientOptions) { o.session = session }
}

// Client pairs a connection manager with a probe engine for one device
type Client struct {
	desc    *ConnectionDescriptor
	profile FamilyProfile
	session Session
	engine  *probe.Engine
	logger  *zap.Logger
}

// NewClient builds a disconnected client for desc using its family profile
func NewClient(desc *ConnectionDescriptor, opts ...ClientOption) (*Client, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	profile, ok := GetFamilyProfile(desc.Family)
	if !ok {
		return nil, types.ErrInvalidDescriptor
	}

	o := &clientOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	session := o.session
	if session == nil {
		var err error
		if session, err = newSession(desc, profile, o); err != nil {
			return nil, err
		}
	}

	probeOpts := []probe.Option{probe.WithLogger(o.logger.With(zap.String("device", desc.String())))}
	if o.probeObserver != nil {
		probeOpts = append(probeOpts, probe.WithObserver(o.probeObserver))
	}

	return &Client{
		desc:    desc.Clone(),
		profile: profile,
		session: session,
		engine:  probe.NewEngine(profile.Commands().Override(o.commands), probeOpts...),
		logger:  o.logger,
	}, nil
}

// Connect opens the session with the client's descriptor
func (c *Client) Connect(ctx context.Context) Result[struct{}] {
	return c.session.Connect(ctx, nil)
}

// Execute runs one raw command
func (c *Client) Execute(ctx context.Context, command string) Result[string] {
	return c.session.Execute(ctx, command)
}

// Disconnect closes the session; it never fails
func (c *Client) Disconnect(ctx context.Context) {
	c.session.Disconnect(ctx)
}

// TestConnection connects and disconnects
func (c *Client) TestConnection(ctx context.Context) Result[ConnectionCheck] {
	return c.session.TestConnection(ctx)
}

// IsConnected returns true if the session is open
func (c *Client) IsConnected() bool {
	return c.session.IsConnected()
}

// ProbeOpticalPower reads the ONT optical levels on the open session
func (c *Client) ProbeOpticalPower(ctx context.Context) Result[OpticalPowerReading] {
	return c.engine.ProbeOpticalPower(ctx, c.session)
}

// ProbeWiFiSettings reads the primary WLAN settings on the open session
func (c *Client) ProbeWiFiSettings(ctx context.Context) Result[WiFiConfiguration] {
	return c.engine.ProbeWiFiSettings(ctx, c.session)
}

// ProbeTrafficStats reads the interface byte counters on the open session
func (c *Client) ProbeTrafficStats(ctx context.Context) Result[TrafficCounters] {
	return c.engine.ProbeTrafficStats(ctx, c.session)
}

// ProbeAll runs the three probes on the open session
func (c *Client) ProbeAll(ctx context.Context) probe.Snapshot {
	return c.engine.ProbeAll(ctx, c.session)
}

// Collect is one complete device interaction: connect, probe everything,
// disconnect. The connect failure is returned as is.
func (c *Client) Collect(ctx context.Context) (probe.Snapshot, error) {
	if res := c.Connect(ctx); !res.OK {
		return probe.Snapshot{}, res.Err()
	}
	defer c.Disconnect(context.WithoutCancel(ctx))

	return c.ProbeAll(ctx), nil
}

// Descriptor returns a copy of the client's descriptor
func (c *Client) Descriptor() *ConnectionDescriptor {
	return c.desc.Clone()
}

// Profile returns the family profile in use
func (c *Client) Profile() FamilyProfile {
	return c.profile
}

// Commands returns the effective probe candidates
func (c *Client) Commands() types.CommandTable {
	return c.engine.Commands()
}

// Session returns the underlying connection manager
func (c *Client) Session() Session {
	return c.session
}
