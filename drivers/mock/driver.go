package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/nanoncore/cpe-southbound/types"
)

// Metadata keys understood by the simulator
const (
	// MetaVendor selects the simulated firmware: huawei, zte, mikrotik or generic
	MetaVendor = "mock_vendor"

	// MetaFail makes Connect fail: "auth" or "unreachable"
	MetaFail = "mock_fail"

	// MetaWiFi sets the simulated radio state: "enabled" or "disabled"
	MetaWiFi = "mock_wifi"
)

// Driver implements a simulated CPE CLI session for testing
// It answers the commands of one vendor dialect without touching the network
type Driver struct {
	desc       *types.ConnectionDescriptor
	connected  bool
	mu         sync.RWMutex
	vendor     string
	device     mockCPE
	scripted   map[string]string
	failures   map[string]error
	cmdHistory []string
	delay      time.Duration
}

type mockCPE struct {
	RxPower     float64
	TxPower     float64
	SSID        string
	Passphrase  string
	WiFiEnabled bool
	BytesIn     uint64
	BytesOut    uint64
}

// Option configures the simulator
type Option func(*Driver)

// WithResponse scripts the output of one command, overriding the simulation
func WithResponse(command, output string) Option {
	return func(d *Driver) {
		d.scripted[command] = output
	}
}

// WithFailure makes one command fail at the transport level
func WithFailure(command string, err error) Option {
	return func(d *Driver) {
		d.failures[command] = err
	}
}

// WithDelay sets the simulated connect latency
func WithDelay(delay time.Duration) Option {
	return func(d *Driver) {
		d.delay = delay
	}
}

// NewDriver creates a new simulated CPE
func NewDriver(desc *types.ConnectionDescriptor, opts ...Option) (*Driver, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		desc:       desc.Clone(),
		vendor:     vendorOf(desc),
		scripted:   make(map[string]string),
		failures:   make(map[string]error),
		cmdHistory: make([]string, 0),
		delay:      20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}

	// Generate a plausible device
	d.generateMockCPE()

	return d, nil
}

func vendorOf(desc *types.ConnectionDescriptor) string {
	switch v := strings.ToLower(desc.Metadata[MetaVendor]); v {
	case "zte", "mikrotik", "generic":
		return v
	default:
		return "huawei"
	}
}

// Connect simulates the login handshake
func (d *Driver) Connect(ctx context.Context, desc *types.ConnectionDescriptor) types.Result[struct{}] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return types.Success(struct{}{})
	}
	if desc != nil {
		if err := desc.Validate(); err != nil {
			return types.Failure[struct{}](err)
		}
		d.desc = desc.Clone()
	}

	// Simulate connection delay
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
		return types.Failure[struct{}](ctx.Err())
	}

	switch d.desc.Metadata[MetaFail] {
	case "auth":
		return types.Failure[struct{}](fmt.Errorf("login as %s: %w", d.desc.Username, types.ErrAuthFailed))
	case "unreachable":
		return types.Failure[struct{}](fmt.Errorf("dial tcp %s: connect: connection refused", d.desc.Address()))
	}

	d.connected = true
	d.recordCommand("login " + d.desc.Username)

	return types.Success(struct{}{})
}

// Disconnect closes the simulated session
func (d *Driver) Disconnect(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.recordCommand("logout")
	}
	d.connected = false
}

// TestConnection connects and disconnects
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

// IsConnected returns connection status
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Execute simulates CLI execution
func (d *Driver) Execute(ctx context.Context, command string) types.Result[string] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return types.Failure[string](types.ErrNotConnected)
	}
	if err := ctx.Err(); err != nil {
		return types.Failure[string](err)
	}

	d.cmdHistory = append(d.cmdHistory, command)

	if err, ok := d.failures[command]; ok {
		return types.Failure[string](err)
	}
	if out, ok := d.scripted[command]; ok {
		return types.Success(out)
	}

	return types.Success(d.respond(strings.TrimSpace(command)))
}

// GetCommandHistory returns the command history (useful for testing)
func (d *Driver) GetCommandHistory() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	history := make([]string, len(d.cmdHistory))
	copy(history, d.cmdHistory)
	return history
}

// Vendor returns the simulated dialect name
func (d *Driver) Vendor() string {
	return d.vendor
}

// Helper methods

func (d *Driver) recordCommand(cmd string) {
	d.cmdHistory = append(d.cmdHistory, cmd)
}

func (d *Driver) generateMockCPE() {
	//nolint:gosec // mock data - all rand usage below is for simulating test data
	d.device = mockCPE{
		RxPower:     -18.0 - float64(rand.Intn(80))/10,
		TxPower:     1.5 + float64(rand.Intn(20))/10,
		SSID:        fmt.Sprintf("%s-%04X", strings.ToUpper(d.vendor), rand.Intn(0x10000)),
		Passphrase:  fmt.Sprintf("%08x", rand.Uint32()),
		WiFiEnabled: d.desc.Metadata[MetaWiFi] != "disabled",
		BytesIn:     1_000_000 + uint64(rand.Intn(1_000_000_000)),
		BytesOut:    100_000 + uint64(rand.Intn(100_000_000)),
	}
}

// respond renders the output of command in the simulated vendor's format.
// Commands of other dialects get that firmware's unknown-command reply.
func (d *Driver) respond(command string) string {
	var out string
	switch d.vendor {
	case "huawei":
		out = d.huaweiOutput(command)
	case "zte":
		out = d.zteOutput(command)
	case "mikrotik":
		out = d.mikrotikOutput(command)
	default:
		out = d.genericOutput(command)
	}
	if out != "" {
		return out
	}

	switch d.vendor {
	case "huawei":
		return "% Unknown command, the error locates at '^'"
	case "zte":
		return "%Error 20200: Invalid input detected at '^' marker."
	case "mikrotik":
		return "bad command name " + firstWord(command) + " (line 1 column 1)"
	default:
		return "-sh: " + firstWord(command) + ": command not found"
	}
}

// tick advances the traffic counters between reads
func (d *Driver) tick() {
	//nolint:gosec // mock data
	d.device.BytesIn += uint64(rand.Intn(50_000))
	//nolint:gosec // mock data
	d.device.BytesOut += uint64(rand.Intn(5_000))
}

func (d *Driver) enableWord(on, off string) string {
	if d.device.WiFiEnabled {
		return on
	}
	return off
}

func (d *Driver) huaweiOutput(command string) string {
	switch command {
	case "display optic":
		return fmt.Sprintf(`Voltage(mV)               : 3280
Bias(mA)                  : 12
RxPower(dBm)              : %.2f
TxPower(dBm)              : %.2f
Temperature(C)            : 45
success!`, d.device.RxPower, d.device.TxPower)
	case "display wlan basic 1":
		return fmt.Sprintf(`  SSID Index           : 1
  SSID                 : %s
  Enable               : %s
  Authentication Mode  : WPA2PSK
  WPA PreSharedKey     : %s
success!`, d.device.SSID, d.enableWord("Enable", "Disabled"), d.device.Passphrase)
	case "display ont traffic":
		d.tick()
		return fmt.Sprintf(`  Upstream traffic          : %s bytes
  Downstream traffic        : %s bytes`, grouped(d.device.BytesOut), grouped(d.device.BytesIn))
	}
	return ""
}

func (d *Driver) zteOutput(command string) string {
	switch command {
	case "show pon optical-info":
		return fmt.Sprintf(`Rx optical power : %.2f dBm
Tx optical power : %.2f dBm`, d.device.RxPower, d.device.TxPower)
	case "show wlan basic":
		return fmt.Sprintf(`SSID Name      : %s
Radio Status   : %s
WPA Passphrase : %s`, d.device.SSID, d.enableWord("Enabled", "Disabled"), d.device.Passphrase)
	case "show interface statistics":
		d.tick()
		return fmt.Sprintf(`Input  : %d bytes
Output : %d bytes`, d.device.BytesIn, d.device.BytesOut)
	}
	return ""
}

func (d *Driver) mikrotikOutput(command string) string {
	switch {
	case strings.HasPrefix(command, "/interface ethernet monitor sfp1"):
		return fmt.Sprintf(`              name: sfp1
            status: link-ok
  sfp-rx-power: %.3fdBm
  sfp-tx-power: %.3fdBm`, d.device.RxPower, d.device.TxPower)
	case strings.HasPrefix(command, "/interface wireless print"):
		return fmt.Sprintf(` 0 %s  name="wlan1" mtu=1500 ssid="%s" mode=ap-bridge%s`,
			d.enableWord("R", "X"), d.device.SSID, d.enableWord("", " disabled=yes"))
	case strings.HasPrefix(command, "/interface print stats-detail"):
		d.tick()
		return fmt.Sprintf(` 0 R  name="ether1" rx-byte=%d tx-byte=%d rx-packet=0 tx-packet=0`,
			d.device.BytesIn, d.device.BytesOut)
	}
	return ""
}

func (d *Driver) genericOutput(command string) string {
	switch command {
	case "uci show wireless":
		return fmt.Sprintf(`wireless.radio0=wifi-device
wireless.radio0.channel='6'%s
wireless.default_radio0.ssid='%s'
wireless.default_radio0.key='%s'`, d.enableWord("", "\nwireless.radio0.disabled='1'"), d.device.SSID, d.device.Passphrase)
	case "ifconfig":
		d.tick()
		return fmt.Sprintf(`eth0      Link encap:Ethernet  HWaddr 00:11:22:33:44:55
          RX packets:1200 errors:0 dropped:0 overruns:0 frame:0
          RX bytes:%d (0.0 B)  TX bytes:%d (0.0 B)`, d.device.BytesIn, d.device.BytesOut)
	case "show optical-power":
		return fmt.Sprintf("Rx power: %.2f dBm\nTx power: %.2f dBm", d.device.RxPower, d.device.TxPower)
	}
	return ""
}

func firstWord(command string) string {
	if f := strings.Fields(command); len(f) > 0 {
		return f[0]
	}
	return command
}

// grouped renders n with comma thousands separators
func grouped(n uint64) string {
	s := fmt.Sprintf("%d", n)
	var sb strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Ensure Driver implements required interfaces
var _ types.Session = (*Driver)(nil)
