package types

import (
	"context"
	"fmt"
	"strings"
)

// Family represents the CPE device family tag supplied by the caller's inventory
type Family string

const (
	FamilyGPON     Family = "gpon"
	FamilyEPON     Family = "epon"
	FamilyMikrotik Family = "mikrotik"
	FamilyMock     Family = "mock" // For testing/simulation
)

// Transport represents the wire protocol used to reach the device CLI
type Transport string

const (
	TransportTelnet Transport = "telnet"
	TransportSSH    Transport = "ssh"
)

// Capability names a semantic query the probe engine can answer
type Capability string

const (
	CapabilityOpticalPower Capability = "optical_power"
	CapabilityWiFi         Capability = "wifi"
	CapabilityTraffic      Capability = "traffic"
)

// ParseFamily normalises a family tag. It returns false for unknown tags.
func ParseFamily(s string) (Family, bool) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case FamilyGPON, FamilyEPON, FamilyMikrotik, FamilyMock:
		return f, true
	default:
		return "", false
	}
}

// ConnectionDescriptor identifies one physical device and the credentials
// used to log into its CLI. It is supplied by the caller per operation and
// never persisted by this package.
type ConnectionDescriptor struct {
	// Name is an optional inventory name, used only for logging
	Name string

	// Host is the management IP/hostname
	Host string

	// Port is the management port (0 selects the transport default)
	Port int

	// Username for the login prompt
	Username string

	// Password for the password prompt
	Password string

	// Family is the device family tag (gpon, epon, mikrotik)
	Family Family

	// Transport is the CLI transport, telnet when empty
	Transport Transport

	// Metadata contains optional per-device overrides
	// (prompt, login_prompt, password_prompt)
	Metadata map[string]string
}

// Validate reports whether the descriptor can be used to open a session.
// An invalid descriptor is a programmer error on the caller side.
func (d *ConnectionDescriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidDescriptor)
	}
	if d.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidDescriptor)
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidDescriptor, d.Port)
	}
	if _, ok := ParseFamily(string(d.Family)); !ok {
		return fmt.Errorf("%w: unknown device family %q", ErrInvalidDescriptor, d.Family)
	}
	switch d.Transport {
	case "", TransportTelnet, TransportSSH:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidDescriptor, d.Transport)
	}
	return nil
}

// Clone returns a deep copy so the caller's descriptor cannot be mutated
// through a session.
func (d *ConnectionDescriptor) Clone() *ConnectionDescriptor {
	if d == nil {
		return nil
	}
	c := *d
	if d.Metadata != nil {
		c.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// EffectiveTransport returns the transport, defaulting to telnet
func (d *ConnectionDescriptor) EffectiveTransport() Transport {
	if d.Transport == "" {
		return TransportTelnet
	}
	return d.Transport
}

// EffectivePort returns the port, defaulting per transport
func (d *ConnectionDescriptor) EffectivePort() int {
	if d.Port != 0 {
		return d.Port
	}
	if d.EffectiveTransport() == TransportSSH {
		return 22
	}
	return 23
}

// Address returns host:port
func (d *ConnectionDescriptor) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.EffectivePort())
}

// String identifies the device in logs without leaking credentials
func (d *ConnectionDescriptor) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s (%s)", d.Name, d.Address())
	}
	return d.Address()
}

// Executor is the minimal contract the probe engine needs from a session.
// Implementations must execute commands strictly one at a time.
type Executor interface {
	// Execute sends one command line and returns the captured output
	Execute(ctx context.Context, command string) Result[string]
}

// Session is the full connection lifecycle exposed to callers
type Session interface {
	Executor

	// Connect opens the transport and negotiates the login prompts.
	// A nil descriptor reuses the one the session was built with.
	Connect(ctx context.Context, desc *ConnectionDescriptor) Result[struct{}]

	// Disconnect tears the session down; it never fails
	Disconnect(ctx context.Context)

	// TestConnection connects and immediately disconnects
	TestConnection(ctx context.Context) Result[ConnectionCheck]

	// IsConnected returns true if connected
	IsConnected() bool
}

// ConnectionCheck is the payload of a successful TestConnection
type ConnectionCheck struct {
	Message string `json:"message"`
}
