package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/nanoncore/cpe-southbound/types"
)

// sshShell is an interactive shell channel on an SSH connection
type sshShell struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func (s *sshShell) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *sshShell) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *sshShell) Close() error {
	_ = s.session.Close()
	return s.client.Close()
}

// dialSSH opens an SSH connection and starts a PTY shell. The CLI is then
// driven exactly like a telnet session; some CPEs ask for the login again
// inside the shell, which the expect handshake answers.
func dialSSH(ctx context.Context, desc *types.ConnectionDescriptor, timeout time.Duration) (io.ReadWriteCloser, error) {
	// Some CPEs require keyboard-interactive instead of password
	keyboardInteractive := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = desc.Password
		}
		return answers, nil
	})

	sshConfig := &ssh.ClientConfig{
		User: desc.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(desc.Password),
			keyboardInteractive,
		},
		Timeout:         timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // CPE host keys are not provisioned
	}

	addr := desc.Address()
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", types.ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}

	_ = conn.SetDeadline(time.Now().Add(timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		_ = conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("%w: %v", types.ErrAuthFailed, err)
		}
		return nil, fmt.Errorf("SSH handshake failed: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(c, chans, reqs)
	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open SSH session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := session.RequestPty("vt100", 500, 200, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to request PTY: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	return &sshShell{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}
