package ftp

import (
	"errors"
	"fmt"

	"github.com/ftpdrive/ftp/storage"
)

var (
	// ErrUploadFailed is wrapped around the ProtocolError returned when the
	// server rejects a completed upload (terminating reply not 226 or 250).
	ErrUploadFailed = errors.New("ftp: upload failed")

	// ErrDownloadFailed is wrapped around the ProtocolError returned when the
	// server rejects a completed download (terminating reply not 226).
	ErrDownloadFailed = errors.New("ftp: download failed")

	// ErrTransferInProgress is returned when a transfer is started while a
	// data connection is still open.
	ErrTransferInProgress = errors.New("ftp: transfer already in progress")

	// ErrClosed is returned for operations on a closed client.
	ErrClosed = errors.New("ftp: client closed")
)

// Kind classifies an error returned by this package.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota
	// KindTransport is a socket dial, read, write or close failure.
	KindTransport
	// KindProtocol is an unexpected status code from the server.
	KindProtocol
	// KindNotFound is a missing or out-of-root local file.
	KindNotFound
	// KindParse is a malformed server reply.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindNotFound:
		return "not found"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of err by walking its wrap chain.
func KindOf(err error) Kind {
	var (
		te *TransportError
		pe *ProtocolError
		ne *NotFoundError
		xe *ParseError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &pe):
		return KindProtocol
	case errors.As(err, &xe):
		return KindParse
	case errors.As(err, &ne):
		return KindNotFound
	case errors.As(err, &te):
		return KindTransport
	default:
		return KindUnknown
	}
}

// TransportError represents a failure on the control or data socket.
type TransportError struct {
	// Op is the socket operation: "dial", "read", "write" or "close"
	Op string

	// Addr is the remote address involved
	Addr string

	// Err is the underlying network error
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("ftp: %s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError represents an FTP protocol error with full context of the
// command/response conversation. This provides detailed debugging information
// beyond simple error messages.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "STOR file.txt")
	Command string

	// Response is the raw response received from the server (e.g., "550 Permission denied")
	Response string

	// Code is the numeric FTP response code (e.g., 550)
	Code int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s", e.Command, e.Response)
}

// Is4xx returns true if the error code is in the 4xx range (temporary failure).
func (e *ProtocolError) Is4xx() bool {
	return e.Code >= 400 && e.Code < 500
}

// Is5xx returns true if the error code is in the 5xx range (permanent failure).
func (e *ProtocolError) Is5xx() bool {
	return e.Code >= 500 && e.Code < 600
}

// IsTemporary returns true if the error is a temporary failure (4xx).
func (e *ProtocolError) IsTemporary() bool {
	return e.Is4xx()
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Is5xx()
}

// ParseError reports a server reply that could not be decoded, such as a
// PASV reply without six numeric fields.
type ParseError struct {
	// Response is the raw text that failed to parse
	Response string

	// Err describes what was wrong with it
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("ftp: malformed reply %q: %v", e.Response, e.Err)
}

// Unwrap returns the underlying parse failure.
func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError reports a local file that is missing, is not a regular
// file, or lies outside the storage root.
type NotFoundError = storage.NotFoundError
