package serverquery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jimsnab/go-lane"
)

const (
	// BufferSize is the size of a single read. A read returning fewer bytes ends a frame.
	BufferSize = 512

	// DefaultReadTimeout bounds each read; a read that times out yields "no frame yet".
	DefaultReadTimeout = 2 * time.Second

	// ConnectionTimeout bounds dialing the server.
	ConnectionTimeout = 10 * time.Second
)

// Client is one row of the client listing.
type Client struct {
	ClientID   int64  `query:"clid"`
	ChannelID  int64  `query:"cid"`
	DatabaseID int64  `query:"client_database_id"`
	Type       int64  `query:"client_type"`
	Nickname   string `query:"client_nickname"`
}

// Session owns one ServerQuery stream. Every request is a complete write-then-read
// round trip under the session lock, so responses can never be matched to the wrong
// command.
type Session struct {
	mu          sync.Mutex
	l           lane.Lane
	conn        net.Conn
	readTimeout time.Duration
	pending     []byte
	closed      bool
}

// Connect dials host:port and consumes the welcome banner.
func Connect(ctx context.Context, l lane.Lane, host string, port int) (*Session, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialCtx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Cause: err}
	}

	s := NewSession(l, conn)
	banner, ok, err := s.ReadFrame()
	if err != nil {
		conn.Close()
		return nil, &ConnectError{Addr: addr, Cause: err}
	}
	if !ok {
		l.Warnf("no welcome banner from %s", addr)
	} else {
		l.Tracef("banner: %q", banner)
	}
	l.Infof("connected to %s", addr)
	return s, nil
}

// NewSession wraps an established stream.
func NewSession(l lane.Lane, conn net.Conn) *Session {
	return &Session{
		l:           l,
		conn:        conn,
		readTimeout: DefaultReadTimeout,
	}
}

// SetReadTimeout changes the per-read polling window.
func (s *Session) SetReadTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readTimeout = d
}

// ReadFrame reads until a frame is complete. It returns ok=false when a read window
// passes without completing a frame; bytes received so far are kept for the next call.
// A returned frame always ends with Terminator.
func (s *Session) ReadFrame() (text string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFrame()
}

func (s *Session) readFrame() (string, bool, error) {
	if s.closed {
		return "", false, ErrSessionClosed
	}
	buf := make([]byte, BufferSize)
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return "", false, &IOError{Op: "set read deadline", Cause: err}
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.pending = append(s.pending, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				if len(s.pending) > 0 {
					s.l.Debugf("read window closed with %d partial bytes buffered", len(s.pending))
				}
				return "", false, nil
			}
			return "", false, &IOError{Op: "read", Cause: err}
		}
		if n < BufferSize || frameComplete(string(s.pending)) {
			// hand out whole lines only; an unterminated tail waits for more bytes
			end := strings.LastIndex(string(s.pending), Terminator)
			if end < 0 {
				continue
			}
			end += len(Terminator)
			text := strings.ToValidUTF8(string(s.pending[:end]), "�")
			s.pending = append([]byte(nil), s.pending[end:]...)
			return text, true, nil
		}
	}
}

// WriteFrame writes text as-is. A short write is logged; transport errors are returned.
func (s *Session) WriteFrame(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFrame(text)
}

func (s *Session) writeFrame(text string) error {
	if s.closed {
		return ErrSessionClosed
	}
	n, err := s.conn.Write([]byte(text))
	if err != nil {
		return &IOError{Op: "write", Cause: err}
	}
	if n != len(text) {
		s.l.Errorf("payload size mismatch: expected %d bytes, wrote %d, payload %q", len(text), n, text)
	}
	return nil
}

// Request writes a command and reads frames until one carries a status line. Event
// lines that arrive ahead of the status line are returned as part of the text.
func (s *Session) Request(command []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, _, _ := strings.Cut(strings.TrimSpace(string(command)), " ")
	s.l.Tracef("-> %s", name)

	if err := s.writeFrame(string(command)); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		text, ok, err := s.readFrame()
		if err != nil {
			return "", err
		}
		if !ok {
			if b.Len() == 0 {
				return "", fmt.Errorf("%s: %w", name, ErrNoResponse)
			}
			return "", fmt.Errorf("%s: incomplete response %q: %w", name, truncate(b.String(), 80), ErrNoResponse)
		}
		b.WriteString(text)
		if responseComplete(b.String()) {
			return b.String(), nil
		}
	}
}

// execute runs a command whose response carries only a status line.
func (s *Session) execute(name string, args ...string) error {
	text, err := s.Request(EncodeCommand(name, args...))
	if err != nil {
		return NewLocalError(err)
	}
	status, err := DecodeStatus(text)
	if err != nil {
		return NewLocalError(err)
	}
	return status.Err()
}

// Login authenticates the query account.
func (s *Session) Login(user, password string) error {
	return s.execute("login", user, password)
}

// SelectServer selects the virtual server all following commands apply to.
func (s *Session) SelectServer(id int64) error {
	return s.execute("use", strconv.FormatInt(id, 10))
}

// RegisterEvents subscribes to server-wide client enter/leave events.
func (s *Session) RegisterEvents() error {
	return s.execute("servernotifyregister", "event=server")
}

// ListClients lists connected clients. A response without a result line is an error:
// the listing always contains at least the query client itself.
func (s *Session) ListClients() ([]Client, error) {
	text, err := s.Request(EncodeCommand("clientlist"))
	if err != nil {
		return nil, NewLocalError(err)
	}
	clients, found, err := DecodeRecords[Client](text)
	if err != nil {
		return nil, NewLocalError(err)
	}
	if !found {
		return nil, NewEmptyResponseError()
	}
	return clients, nil
}

// Whoami issues the cheap identity query used as a liveness probe and returns the raw
// response, which may include interleaved event lines.
func (s *Session) Whoami() (string, error) {
	return s.Request(EncodeCommand("whoami"))
}

// Logout sends quit. The server may close the stream without a status, so no
// response is awaited.
func (s *Session) Logout() error {
	return s.WriteFrame(string(EncodeCommand("quit")))
}

// Close closes the stream. Further operations fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
