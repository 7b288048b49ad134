package ftp

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// parsePASV decodes the endpoint of a 227 reply.
// Example: "227 Entering Passive Mode (192,168,1,1,195,149)"
// Returns: "192.168.1.1:50069" (195*256 + 149 = 50069)
//
// The text between the first '(' and the next ')' must hold exactly six
// comma-separated integers. Their ranges are not checked; an out-of-range
// value surfaces later as a dial failure.
func parsePASV(response string) (string, error) {
	start := strings.IndexByte(response, '(')
	if start < 0 {
		return "", &ParseError{Response: response, Err: errors.New("missing '(' in PASV reply")}
	}
	end := strings.IndexByte(response[start+1:], ')')
	if end < 0 {
		return "", &ParseError{Response: response, Err: errors.New("missing ')' in PASV reply")}
	}

	fields := strings.Split(response[start+1:start+1+end], ",")
	if len(fields) != 6 {
		return "", &ParseError{Response: response, Err: fmt.Errorf("PASV reply has %d fields, want 6", len(fields))}
	}

	var v [6]int
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return "", &ParseError{Response: response, Err: fmt.Errorf("PASV field %d: %w", i+1, err)}
		}
		v[i] = n
	}

	host := fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
	port := v[4]*256 + v[5]
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// resolveDataAddr resolves the data connection address.
// If the PASV response contains 0.0.0.0, it replaces it with the control connection host.
func resolveDataAddr(pasvAddr, controlHost string) string {
	host, port, err := net.SplitHostPort(pasvAddr)
	if err != nil {
		return pasvAddr
	}

	if host == "0.0.0.0" {
		return net.JoinHostPort(controlHost, port)
	}

	return pasvAddr
}

// enterPassiveMode sends PASV, decodes the 227 reply and opens the data
// connection to the advertised endpoint.
func (c *Client) enterPassiveMode() (net.Conn, error) {
	resp, err := c.roundTrip("PASV")
	if err != nil {
		return nil, err
	}

	if err := c.expectCode(resp, "PASV", "227"); err != nil {
		return nil, err
	}

	addr, err := parsePASV(resp.String())
	if err != nil {
		return nil, err
	}
	addr = resolveDataAddr(addr, c.host)

	dataConn, err := c.dial(addr)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("data connection open", "addr", addr)
	return dataConn, nil
}
