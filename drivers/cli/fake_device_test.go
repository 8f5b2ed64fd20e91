package cli

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanoncore/cpe-southbound/types"
)

// fakeDevice is an in-process telnet CPE listening on 127.0.0.1. It speaks
// plain text, which ziutek/telnet passes through untouched.
type fakeDevice struct {
	t  *testing.T
	ln net.Listener

	username  string
	password  string
	prompt    string
	banner    string
	responses map[string]string
	pages     map[string][]string
	hang      map[string]bool
	hangup    map[string]bool

	mu       sync.Mutex
	commands []string
	conns    int
}

func newFakeDevice(t *testing.T, configure ...func(*fakeDevice)) *fakeDevice {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeDevice{
		t:         t,
		ln:        ln,
		username:  "admin",
		password:  "secret",
		prompt:    "HG8245# ",
		responses: map[string]string{},
		pages:     map[string][]string{},
		hang:      map[string]bool{},
		hangup:    map[string]bool{},
	}
	for _, c := range configure {
		c(f)
	}

	t.Cleanup(func() { _ = ln.Close() })
	go f.acceptLoop()
	return f
}

func (f *fakeDevice) descriptor() *types.ConnectionDescriptor {
	host, portStr, err := net.SplitHostPort(f.ln.Addr().String())
	require.NoError(f.t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(f.t, err)

	return &types.ConnectionDescriptor{
		Name:     "fake-ont",
		Host:     host,
		Port:     port,
		Username: f.username,
		Password: f.password,
		Family:   types.FamilyGPON,
	}
}

func (f *fakeDevice) acceptLoop() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns++
		f.mu.Unlock()
		go f.serve(conn)
	}
}

func (f *fakeDevice) connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns
}

func (f *fakeDevice) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakeDevice) record(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (f *fakeDevice) serve(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	write := func(s string) { _, _ = io.WriteString(conn, s) }

	if f.banner != "" {
		write(f.banner + "\r\n")
	}

	for attempt := 0; ; attempt++ {
		write("Login: ")
		user, err := readLine(r)
		if err != nil {
			return
		}
		write(user + "\r\nPassword: ")
		pass, err := readLine(r)
		if err != nil {
			return
		}
		write("\r\n")
		if user == f.username && pass == f.password {
			break
		}
		write("Login incorrect\r\n")
		if attempt >= 2 {
			return
		}
	}

	write("Welcome to the fake ONT\r\n" + f.prompt)
	for {
		line, err := readLine(r)
		if err != nil {
			return
		}
		f.record(line)
		write(line + "\r\n")

		switch {
		case line == "logout" || line == "quit" || line == "drop":
			return
		case f.hang[line]:
			continue
		case len(f.pages[line]) > 0:
			pages := f.pages[line]
			for i, page := range pages {
				write(page + "\r\n")
				if i == len(pages)-1 {
					break
				}
				write("---- More ( Press 'Q' to break ) ----")
				if _, err := r.ReadByte(); err != nil {
					return
				}
				write("\r                                     \r")
			}
		default:
			if out, ok := f.responses[line]; ok {
				write(out + "\r\n")
			} else {
				write("% Unknown command.\r\n")
			}
		}
		write(f.prompt)
		if f.hangup[line] {
			return
		}
	}
}
