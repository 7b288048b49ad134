package ftp

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/ftpdrive/ftp/internal/ratelimit"
	"github.com/ftpdrive/ftp/storage"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTimeout sets the timeout for connection and operations.
// This applies to both the initial connection and subsequent read/write
// operations on the control and data connections. The default is no
// timeout: a stalled server blocks the caller until the process ends.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// All FTP commands and responses will be logged at debug level, with
// passwords masked.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := ftp.Dial("127.0.0.1:21", ftp.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for establishing connections.
// This can be used to configure source addresses, keep-alive settings, etc.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return errors.New("dialer must not be nil")
		}
		c.dialer = dialer
		return nil
	}
}

// WithStorageRoot sets the local directory that UploadFile reads from and
// DownloadFile writes to. The default is "drive" in the working directory.
func WithStorageRoot(dir string) Option {
	return func(c *Client) error {
		c.root = storage.New(dir)
		return nil
	}
}

// WithChunkSize sets how many bytes are sent per data connection write
// during uploads. The default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(c *Client) error {
		if size <= 0 {
			return errors.New("chunk size must be positive")
		}
		c.chunkSize = size
		return nil
	}
}

// WithBandwidthLimit caps data connection throughput in bytes per second.
// Zero disables the limit.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(c *Client) error {
		if bytesPerSecond < 0 {
			return errors.New("bandwidth limit must not be negative")
		}
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}

// WithProgress registers a callback that receives the cumulative number of
// bytes moved on the data connection. op is "LIST", "STOR" or "RETR".
//
// Example:
//
//	ftp.WithProgress(func(op string, n int64) {
//	    fmt.Printf("\r%s: %d bytes", op, n)
//	})
func WithProgress(fn func(op string, n int64)) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithResponseHandler registers a callback that receives every response
// read from the control connection, including the greeting and the
// preliminary and final replies of transfers.
func WithResponseHandler(fn func(*Response)) Option {
	return func(c *Client) error {
		c.onResponse = fn
		return nil
	}
}
