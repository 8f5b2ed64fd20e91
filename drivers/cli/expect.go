package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	expect "github.com/google/goexpect"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nanoncore/cpe-southbound/types"
	"github.com/nanoncore/cpe-southbound/vendors/common"
)

// Default prompt patterns. They are matched against the end of the buffered
// output, so a pattern only fires once the device stops and waits.
var (
	DefaultLoginPattern    = regexp.MustCompile(`(?i)(?:login|user[ \t_-]?name|user)[ \t]*:[ \t]*$`)
	DefaultPasswordPattern = regexp.MustCompile(`(?i)pass(?:word|wd)?[ \t]*:[ \t]*$`)
	DefaultPromptPattern   = regexp.MustCompile(`(?:[\w\-.@:~/()]+[ \t]?[#>]|\[[^\]\r\n]+\][ \t]*[>#])[ \t]*$`)
	DefaultFailurePattern  = regexp.MustCompile(`(?i)(?:login incorrect|login failed|authentication failed|access denied|bad password|invalid (?:user(?:name)?|password|login)|(?:user ?name|user) or password)`)
	DefaultPagerPattern    = regexp.MustCompile(`(?i)(?:-{2,}[ \t]*\(?[ \t]*more\b[^\r\n]*?-{2,}|press any key to continue[^\r\n]*)[ \t]*$`)
)

// drainTimeout bounds how long the session waits for a trailing banner or a
// duplicated prompt after login.
const drainTimeout = 250 * time.Millisecond

var anyOutput = regexp.MustCompile(`(?s).+`)

// Prompts holds the patterns used to drive one CLI session
type Prompts struct {
	Login    *regexp.Regexp
	Password *regexp.Regexp
	Shell    *regexp.Regexp
	Failure  *regexp.Regexp
	Pager    *regexp.Regexp
}

// DefaultPrompts returns patterns that work for most CPE shells
func DefaultPrompts() Prompts {
	return Prompts{
		Login:    DefaultLoginPattern,
		Password: DefaultPasswordPattern,
		Shell:    DefaultPromptPattern,
		Failure:  DefaultFailurePattern,
		Pager:    DefaultPagerPattern,
	}
}

// merge fills unset patterns from other
func (p Prompts) merge(other Prompts) Prompts {
	if p.Login == nil {
		p.Login = other.Login
	}
	if p.Password == nil {
		p.Password = other.Password
	}
	if p.Shell == nil {
		p.Shell = other.Shell
	}
	if p.Failure == nil {
		p.Failure = other.Failure
	}
	if p.Pager == nil {
		p.Pager = other.Pager
	}
	return p
}

// AnyOf joins patterns into one alternation; nil entries are skipped
func AnyOf(res ...*regexp.Regexp) *regexp.Regexp {
	parts := make([]string, 0, len(res))
	for _, re := range res {
		if re != nil {
			parts = append(parts, "(?:"+re.String()+")")
		}
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}

// errStreamClosed is recorded when the session closes its own transport
var errStreamClosed = errors.New("transport closed")

// stream adapts a byte transport to goexpect and remembers when it died,
// so a dead peer can be told apart from a slow command.
type stream struct {
	rwc io.ReadWriteCloser

	mu   sync.Mutex
	err  error
	done chan struct{}
	once sync.Once
}

func newStream(rwc io.ReadWriteCloser) *stream {
	return &stream{rwc: rwc, done: make(chan struct{})}
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.rwc.Read(p)
	if err != nil {
		s.fail(err)
	}
	return n, err
}

func (s *stream) Write(p []byte) (int, error) {
	n, err := s.rwc.Write(p)
	if err != nil {
		s.fail(err)
	}
	return n, err
}

// Close tears the transport down. Only the first call reaches the transport.
func (s *stream) Close() error {
	var err error
	closed := false
	s.once.Do(func() {
		closed = true
		s.fail(errStreamClosed)
		err = s.rwc.Close()
	})
	if !closed {
		return nil
	}
	return err
}

func (s *stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = err
	close(s.done)
}

func (s *stream) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err == nil
}

func (s *stream) cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) wait() error {
	<-s.done
	if err := s.cause(); !errors.Is(err, errStreamClosed) {
		return err
	}
	return nil
}

// ExpectSession wraps google/goexpect for CPE CLI interaction
type ExpectSession struct {
	expecter *expect.GExpect
	stream   *stream
	prompts  Prompts
	logger   *zap.Logger

	handshakeRE *regexp.Regexp
	responseRE  *regexp.Regexp
}

// ExpectSessionConfig holds configuration for creating an expect session
type ExpectSessionConfig struct {
	// Conn is the established byte stream (telnet connection or ssh shell)
	Conn io.ReadWriteCloser

	// Username and Password answer the login prompts. Either may be
	// skipped when the transport already authenticated.
	Username string
	Password string

	// Timeout bounds the whole login handshake
	Timeout time.Duration

	// PagerCommand is sent once after login, best-effort
	PagerCommand string

	// CommandTimeout bounds the pager disable command
	CommandTimeout time.Duration

	Prompts Prompts
	Logger  *zap.Logger
}

// NewExpectSession negotiates the login prompts on cfg.Conn and returns a
// session sitting at the shell prompt. On failure Conn is closed.
func NewExpectSession(ctx context.Context, cfg ExpectSessionConfig) (*ExpectSession, error) {
	if cfg.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConnectTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	prompts := cfg.Prompts.merge(DefaultPrompts())

	st := newStream(cfg.Conn)
	exp, _, err := expect.SpawnGeneric(&expect.GenOptions{
		In:    st,
		Out:   st,
		Wait:  st.wait,
		Close: st.Close,
		Check: st.alive,
	}, cfg.Timeout,
		expect.Verbose(false),
		expect.CheckDuration(500*time.Millisecond),
	)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to spawn expect session: %w", err)
	}

	session := &ExpectSession{
		expecter:    exp,
		stream:      st,
		prompts:     prompts,
		logger:      cfg.Logger,
		handshakeRE: AnyOf(prompts.Failure, prompts.Password, prompts.Login, prompts.Shell),
		responseRE:  AnyOf(prompts.Pager, prompts.Shell),
	}

	if err := session.login(ctx, cfg.Username, cfg.Password, cfg.Timeout); err != nil {
		_ = session.Close()
		return nil, err
	}
	session.drain()

	// Disable pager if configured (non-fatal if it fails)
	if cfg.PagerCommand != "" {
		if _, err := session.Execute(ctx, cfg.PagerCommand, cfg.CommandTimeout); err != nil {
			session.logger.Debug("pager disable failed", zap.String("command", cfg.PagerCommand), zap.Error(err))
		}
	}
	return session, nil
}

// login answers login and password prompts until the shell prompt shows up.
// A login or password prompt after the password was sent, or a failure
// message, means the credentials were rejected.
func (s *ExpectSession) login(ctx context.Context, username, password string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	stop := context.AfterFunc(ctx, func() { _ = s.stream.Close() })
	defer stop()

	sentUser, sentPass := false, false
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: no shell prompt after %s", types.ErrConnectTimeout, timeout)
		}

		out, match, err := s.expecter.Expect(s.handshakeRE, remaining)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("login aborted: %w", ctxErr)
			}
			if !s.stream.alive() {
				return fmt.Errorf("connection closed during login: %w", s.stream.cause())
			}
			if isTimeout(err) || !time.Now().Before(deadline) {
				return fmt.Errorf("%w: waiting for login prompt (last output %q)", types.ErrConnectTimeout, lastLine(out))
			}
			return fmt.Errorf("login negotiation failed: %w", err)
		}

		matched := ""
		if len(match) > 0 {
			matched = match[0]
		}
		switch {
		case s.prompts.Failure.MatchString(matched):
			if sentUser || sentPass {
				return fmt.Errorf("%w: %s", types.ErrAuthFailed, strings.TrimSpace(matched))
			}
			// banner text before any credential was sent
		case s.prompts.Password.MatchString(matched):
			if sentPass {
				return fmt.Errorf("%w: password prompted again", types.ErrAuthFailed)
			}
			if err := s.send(password + "\n"); err != nil {
				return err
			}
			sentPass = true
		case s.prompts.Login.MatchString(matched):
			if sentPass {
				return fmt.Errorf("%w: login prompted again", types.ErrAuthFailed)
			}
			if sentUser {
				return fmt.Errorf("%w: username rejected", types.ErrAuthFailed)
			}
			if err := s.send(username + "\n"); err != nil {
				return err
			}
			sentUser = true
		default:
			s.logger.Debug("shell prompt reached", zap.String("prompt", strings.TrimSpace(matched)))
			return nil
		}
	}
}

// drain discards output that trails the first prompt (late banners,
// repeated prompts) so the next command reads only its own response.
func (s *ExpectSession) drain() {
	for i := 0; i < 8; i++ {
		if _, _, err := s.expecter.Expect(anyOutput, drainTimeout); err != nil {
			return
		}
	}
}

func (s *ExpectSession) send(line string) error {
	if err := s.expecter.Send(line); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	return nil
}

// Execute sends a command and waits for the prompt, answering pager prompts
// with a space. The output has the echo, prompt and terminal artefacts removed.
func (s *ExpectSession) Execute(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if s.expecter == nil {
		return "", fmt.Errorf("expect session not initialized")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.stream.alive() {
		return "", fmt.Errorf("connection lost: %w", s.stream.cause())
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	// The CLI state is unknown once a command is abandoned half way.
	stop := context.AfterFunc(ctx, func() { _ = s.stream.Close() })
	defer stop()

	if err := s.send(command + "\n"); err != nil {
		return "", err
	}

	var raw strings.Builder
	pages := 0
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return s.cleanOutput(raw.String(), command), fmt.Errorf("%w after command %q", types.ErrCommandTimeout, command)
		}

		out, match, err := s.expecter.Expect(s.responseRE, remaining)
		raw.WriteString(out)
		if err != nil {
			partial := s.cleanOutput(raw.String(), command)
			switch {
			case ctx.Err() != nil:
				_ = s.stream.Close()
				return partial, fmt.Errorf("command %q aborted: %w", command, ctx.Err())
			case !s.stream.alive():
				return partial, fmt.Errorf("connection lost: %w", s.stream.cause())
			case isTimeout(err) || !time.Now().Before(deadline):
				return partial, fmt.Errorf("%w after command %q", types.ErrCommandTimeout, command)
			default:
				return partial, fmt.Errorf("failed waiting for prompt: %w", err)
			}
		}

		if len(match) > 0 && s.prompts.Pager.MatchString(match[0]) {
			pages++
			if err := s.send(" "); err != nil {
				return s.cleanOutput(raw.String(), command), err
			}
			continue
		}
		break
	}

	if pages > 0 {
		s.logger.Debug("answered pager prompts", zap.String("command", command), zap.Int("pages", pages))
	}
	return s.cleanOutput(raw.String(), command), nil
}

// cleanOutput removes the command echo and the trailing prompt
func (s *ExpectSession) cleanOutput(output, command string) string {
	lines := strings.Split(common.CleanOutput(output), "\n")

	// Skip the first line if it's the command echo
	if len(lines) > 0 && strings.Contains(lines[0], strings.TrimSpace(command)) {
		lines = lines[1:]
	}
	// The last line holds the prompt the response ended on
	if n := len(lines); n > 0 && s.prompts.Shell.MatchString(strings.TrimRight(lines[n-1], " \t")) {
		lines = lines[:n-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Send writes a line without waiting for a response
func (s *ExpectSession) Send(line string) error {
	return s.send(line + "\n")
}

// Alive reports whether the transport is still open
func (s *ExpectSession) Alive() bool {
	return s.stream.alive()
}

// Close closes the expect session and its transport
func (s *ExpectSession) Close() error {
	err := s.expecter.Close()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	return err
}

// isTimeout recognizes goexpect's timer expiry
func isTimeout(err error) bool {
	return status.Code(err) == codes.DeadlineExceeded
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
