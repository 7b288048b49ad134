package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/ftpdrive/ftp"
	"github.com/ftpdrive/ftp/storage"
)

// Config holds every setting for one ftpdrive session.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host    string
	Port    int
	Timeout time.Duration // 0 = block indefinitely

	// ── Login ────────────────────────────────────────────────────────
	User        string
	Password    string
	PasswordSet bool // --password given, even if empty

	// ── Transfers ────────────────────────────────────────────────────
	Root      string // local storage root
	ChunkSize int
	Limit     int64 // bytes per second, 0 = unlimited

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// defaultConfig returns the settings used when no flag overrides them.
func defaultConfig() *Config {
	return &Config{
		Root:      storage.DefaultDir,
		ChunkSize: ftp.DefaultChunkSize,
	}
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string // flag name
	Value   any    // the invalid value (nil if missing)
	Message string // human-readable explanation
	Hint    string // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// Validate checks that the configuration can be used to connect.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "host", Message: "server address is required", Hint: "ftpdrive <host> [port]"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigError{Field: "port", Value: c.Port, Message: "port out of range 1-65535"}
	}
	if c.Root == "" {
		return &ConfigError{Field: "root", Message: "storage root must not be empty", Hint: "the default is " + storage.DefaultDir}
	}
	if c.ChunkSize <= 0 {
		return &ConfigError{Field: "chunk-size", Value: c.ChunkSize, Message: "must be positive"}
	}
	if c.Limit < 0 {
		return &ConfigError{Field: "limit", Value: c.Limit, Message: "must not be negative", Hint: "use 0 for unlimited"}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative", Hint: "use 0 for no timeout"}
	}
	return nil
}

// Addr returns the server address as "host:port".
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// clientOptions translates the configuration into ftp client options.
func (c *Config) clientOptions(logger *slog.Logger, out io.Writer) []ftp.Option {
	return []ftp.Option{
		ftp.WithStorageRoot(c.Root),
		ftp.WithChunkSize(c.ChunkSize),
		ftp.WithBandwidthLimit(c.Limit),
		ftp.WithTimeout(c.Timeout),
		ftp.WithLogger(logger),
		ftp.WithResponseHandler(func(r *ftp.Response) {
			fmt.Fprintln(out, r.String())
		}),
	}
}

// newLogger maps the -v count to a slog level: warnings by default, info
// with -v and debug (every command and reply) with -vv.
func newLogger(verbose int, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
