package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ziutek/telnet"

	"github.com/nanoncore/cpe-southbound/types"
)

// dialTelnet opens a telnet connection to addr. Option negotiation (IAC)
// is answered by ziutek/telnet; lines are written with CRLF endings.
func dialTelnet(ctx context.Context, addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrConnectTimeout, addr)
	}

	conn, err := telnet.DialTimeout("tcp", addr, timeout)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", types.ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("failed to dial telnet: %w", err)
	}
	conn.SetUnixWriteMode(true)
	return conn, nil
}
