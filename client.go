package ftp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/ftpdrive/ftp/internal/ratelimit"
	"github.com/ftpdrive/ftp/storage"
)

// DefaultChunkSize is the number of bytes read from a local file and sent
// on the data connection per write.
const DefaultChunkSize = 8192

// Client represents an FTP client connection.
//
// A Client owns exactly one control connection for its lifetime and opens
// one passive-mode data connection per transfer. It is not safe for
// concurrent use.
type Client struct {
	// conn is the underlying network connection (control channel)
	conn net.Conn

	// reader is a buffered reader for the control channel
	reader *bufio.Reader

	// host and port for the connection
	host string
	port string

	// greeting is the server's welcome response
	greeting *Response

	// closed is set once the control connection has been closed
	closed bool

	// dataConn is the data connection of the transfer in progress, if any
	dataConn net.Conn

	// root is the local directory uploads read from and downloads write to
	root *storage.Root

	// chunkSize is the upload chunk size
	chunkSize int

	// limiter caps data connection throughput; nil means unlimited
	limiter *ratelimit.Limiter

	// progress receives cumulative byte counts during transfers
	progress func(op string, n int64)

	// onResponse receives every response read from the control connection
	onResponse func(*Response)

	// timeout bounds every socket operation; zero blocks indefinitely
	timeout time.Duration

	logger *slog.Logger
	dialer *net.Dialer
}

// Dial connects to an FTP server at the given address and reads its
// greeting. The address should be in the form "host:port".
//
// Example:
//
//	client, err := ftp.Dial("127.0.0.1:21", ftp.WithStorageRoot("drive"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout()
func Dial(addr string, options ...Option) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	c := &Client{
		host:      host,
		port:      port,
		root:      storage.New(storage.DefaultDir),
		chunkSize: DefaultChunkSize,
		dialer:    &net.Dialer{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if c.timeout > 0 && c.dialer.Timeout == 0 {
		c.dialer.Timeout = c.timeout
	}

	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// connect establishes the control connection and reads the greeting.
func (c *Client) connect() error {
	addr := c.addr()
	c.logger.Debug("connecting to ftp server", "addr", addr)

	conn, err := c.dial(addr)
	if err != nil {
		return err
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)

	// 120 "service ready in nnn minutes" precedes the real greeting
	var resp *Response
	for {
		resp, err = c.readReply()
		if err != nil {
			c.conn.Close()
			return err
		}
		if !resp.Is1xx() {
			break
		}
	}

	if err := c.expectCode(resp, "CONNECT", "220"); err != nil {
		c.conn.Close()
		return err
	}

	c.greeting = resp
	return nil
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.host, c.port)
}

// Greeting returns the server's welcome response.
func (c *Client) Greeting() *Response {
	return c.greeting
}

// StorageRoot returns the local storage root used for file transfers.
func (c *Client) StorageRoot() *storage.Root {
	return c.root
}

// Login authenticates with USER and PASS. Replies are not checked against
// particular codes; they reach the response handler and the last one is
// returned. PASS is skipped when the server accepts the user with 230.
func (c *Client) Login(username, password string) (*Response, error) {
	resp, err := c.roundTrip("USER", username)
	if err != nil {
		return nil, err
	}
	if resp.Code == 230 {
		return resp, nil
	}

	return c.roundTrip("PASS", password)
}

// Logout sends QUIT, reads the reply and closes the control connection.
// The reply is returned as-is; calling Logout on a closed client is a no-op.
func (c *Client) Logout() (*Response, error) {
	if c.closed {
		return nil, nil
	}

	resp, err := c.roundTrip("QUIT")
	closeErr := c.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return resp, closeErr
	}
	return resp, nil
}

// Close closes the control connection, and the data connection if a
// transfer was left open, without sending QUIT.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.dataConn != nil {
		_ = c.dataConn.Close()
		c.dataConn = nil
	}

	if err := c.conn.Close(); err != nil {
		return &TransportError{Op: "close", Addr: c.addr(), Err: err}
	}
	return nil
}

// Quote sends a raw command to the server and returns the response.
// This allows sending commands that are not explicitly supported by the client.
//
// Example:
//
//	resp, err := client.Quote("SYST")
func (c *Client) Quote(command string, args ...string) (*Response, error) {
	return c.roundTrip(command, args...)
}
