package ftp

import (
	"net"
	"time"
)

// deadlineConn wraps a net.Conn and sets a read/write deadline before every operation.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

// dial opens a TCP connection to addr. It is used for both the control
// connection and every passive-mode data connection.
func (c *Client) dial(addr string) (net.Conn, error) {
	c.logger.Debug("dialing", "addr", addr)

	conn, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: "dial", Addr: addr, Err: err}
	}

	if c.timeout > 0 {
		return &deadlineConn{Conn: conn, timeout: c.timeout}, nil
	}
	return conn, nil
}
