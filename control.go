package ftp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Response represents an FTP server response.
type Response struct {
	// Code is the three-digit response code (e.g., 220, 550)
	Code int

	// Message is the human-readable message from the server
	Message string

	// Lines contains all lines of the response (for multi-line responses)
	Lines []string
}

// Is1xx returns true if the response code is in the 1xx range (preliminary).
func (r *Response) Is1xx() bool {
	return r.Code >= 100 && r.Code < 200
}

// Is2xx returns true if the response code is in the 2xx range (success).
func (r *Response) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// IsNegative returns true for 4xx and 5xx responses.
func (r *Response) IsNegative() bool {
	return r.Code >= 400
}

// String returns the full response as a string.
func (r *Response) String() string {
	return strings.Join(r.Lines, "\n")
}

// CheckResponseCode reports whether response starts with expectedCode.
// Only the first three characters of response are compared.
//
//	CheckResponseCode("550 Failed", "550") // true
//	CheckResponseCode("550 Failed", "226") // false
func CheckResponseCode(response, expectedCode string) bool {
	if len(response) < 3 {
		return false
	}
	return response[:3] == expectedCode
}

// readResponse reads a complete FTP response from the reader.
// It handles both single-line and multi-line responses.
//
// Single-line format: "220 Welcome\r\n"
// Multi-line format:
//
//	"220-Welcome to FTP\r\n"
//	"220-This is line 2\r\n"
//	"220 Ready\r\n"
//
// The response is complete when a line starts with the code followed by a
// space. Lines in between that do not carry the code are kept as text.
func readResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	if len(line) < 3 {
		return nil, &ParseError{Response: line, Err: errors.New("status line too short")}
	}
	code, err := strconv.Atoi(line[:3])
	if err != nil || code < 100 || code > 599 {
		return nil, &ParseError{Response: line, Err: fmt.Errorf("invalid status code %q", line[:3])}
	}

	// "200" with nothing after it is accepted as a bare code
	if len(line) == 3 || line[3] == ' ' {
		return &Response{Code: code, Message: messageOf(line), Lines: []string{line}}, nil
	}
	if line[3] != '-' {
		return nil, &ParseError{Response: line, Err: errors.New("invalid status separator")}
	}

	lines := []string{line}
	end := line[:3] + " "
	for {
		next, err := readLine(r)
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		lines = append(lines, next)
		if strings.HasPrefix(next, end) || next == line[:3] {
			break
		}
	}

	msgs := make([]string, 0, len(lines))
	for _, l := range lines {
		msgs = append(msgs, messageOf(l))
	}

	return &Response{
		Code:    code,
		Message: strings.Join(msgs, "\n"),
		Lines:   lines,
	}, nil
}

// messageOf strips a leading "ddd " or "ddd-" from a response line.
// Continuation lines without a code are returned trimmed.
func messageOf(line string) string {
	if len(line) >= 4 && (line[3] == ' ' || line[3] == '-') {
		if _, err := strconv.Atoi(line[:3]); err == nil {
			return line[4:]
		}
	}
	if len(line) == 3 {
		return ""
	}
	return strings.TrimSpace(line)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// sendCommand writes an FTP command line to the control connection.
// The command and its CRLF terminator go out in a single write.
func (c *Client) sendCommand(command string, args ...string) error {
	if c.closed {
		return ErrClosed
	}

	line := command
	if len(args) > 0 {
		line = command + " " + strings.Join(args, " ")
	}

	if command == "PASS" {
		c.logger.Debug("ftp command", "cmd", "PASS ****")
	} else {
		c.logger.Debug("ftp command", "cmd", line)
	}

	buf := []byte(line + "\r\n")
	n, err := c.conn.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &TransportError{Op: "write", Addr: c.addr(), Err: err}
	}
	return nil
}

// readReply reads the next response from the control connection and hands
// it to the response handler.
func (c *Client) readReply() (*Response, error) {
	if c.closed {
		return nil, ErrClosed
	}

	resp, err := readResponse(c.reader)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &TransportError{Op: "read", Addr: c.addr(), Err: err}
	}

	c.logger.Debug("ftp response", "code", resp.Code, "message", resp.Message)
	if c.onResponse != nil {
		c.onResponse(resp)
	}
	return resp, nil
}

// roundTrip sends a command and reads its response.
func (c *Client) roundTrip(command string, args ...string) (*Response, error) {
	if err := c.sendCommand(command, args...); err != nil {
		return nil, err
	}
	return c.readReply()
}

// expectCode verifies that resp starts with one of codes. On mismatch the
// full response is logged and returned inside a ProtocolError.
func (c *Client) expectCode(resp *Response, command string, codes ...string) error {
	raw := resp.String()
	for _, code := range codes {
		if CheckResponseCode(raw, code) {
			return nil
		}
	}

	c.logger.Warn("unexpected ftp response",
		"cmd", command,
		"expected", strings.Join(codes, "/"),
		"response", raw)

	return &ProtocolError{
		Command:  command,
		Response: raw,
		Code:     resp.Code,
	}
}
