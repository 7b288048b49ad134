// Package cli wires up the ftpdrive flags, prompts for whatever is missing
// and runs the interactive shell.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ftpdrive/ftp"
	"github.com/ftpdrive/ftp/internal/controller"
)

// version is overridable at link time:
//
//	go build -ldflags "-X github.com/ftpdrive/ftp/internal/cli.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args, connects, logs in and runs the shell until the user
// exits or in reaches end of input. Prompts and server replies go to out;
// usage and log output go to errOut.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("ftpdrive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	// ── login ────────────────────────────────────────────────────
	fs.StringVarP(&cfg.User, "user", "u", "", "Login user name (prompted if omitted)")
	fs.StringVar(&cfg.Password, "password", "", "Login password (prompted if omitted)")

	// ── transfers ────────────────────────────────────────────────
	fs.StringVarP(&cfg.Root, "root", "r", cfg.Root, "Local storage root for uploads and downloads")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Upload chunk size in bytes")
	fs.Int64Var(&cfg.Limit, "limit", 0, "Bandwidth limit in bytes per second (0 = unlimited)")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Socket timeout in seconds (0 = none)")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs, errOut) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs, errOut)
		return nil
	}
	if showVersion {
		fmt.Fprintf(out, "ftpdrive %s\n", version)
		return nil
	}

	if timeoutSec < 0 {
		return &ConfigError{Field: "timeout", Value: timeoutSec, Message: "must not be negative", Hint: "use 0 for no timeout"}
	}
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.PasswordSet = fs.Changed("password")

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── prompts ──────────────────────────────────────────────────
	input := newLineReader(in)
	if err := promptMissing(ctx, cfg, input, out); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── connect ──────────────────────────────────────────────────
	logger := newLogger(cfg.Verbose, errOut)

	client, err := ftp.Dial(cfg.Addr(), cfg.clientOptions(logger, out)...)
	if err != nil {
		return err
	}
	defer client.Close()

	ctl := controller.New(client, out, logger)
	if _, err := ctl.Login(cfg.User, cfg.Password); err != nil {
		return err
	}

	sh := &shell{
		ctl:  ctl,
		root: client.StorageRoot(),
		in:   input,
		out:  out,
	}
	return sh.run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *Config, remaining []string) error {
	switch len(remaining) {
	case 0:
	case 1:
		cfg.Host = remaining[0]
	case 2:
		cfg.Host = remaining[0]
		port, err := parsePort(remaining[1])
		if err != nil {
			return err
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	return nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ConfigError{Field: "port", Value: s, Message: "not a number"}
	}
	if port < 1 || port > 65535 {
		return 0, &ConfigError{Field: "port", Value: port, Message: "port out of range 1-65535"}
	}
	return port, nil
}

// promptMissing asks for the host, port, user and password when they were
// not given on the command line.
func promptMissing(ctx context.Context, cfg *Config, input *lineReader, out io.Writer) error {
	if cfg.Host == "" {
		host, err := prompt(ctx, input, out, "Enter the server address: ")
		if err != nil {
			return err
		}
		cfg.Host = host
	}

	if cfg.Port == 0 {
		s, err := prompt(ctx, input, out, "Enter the server port: ")
		if err != nil {
			return err
		}
		if cfg.Port, err = parsePort(s); err != nil {
			return err
		}
	}

	if cfg.User == "" {
		user, err := prompt(ctx, input, out, "Enter username: ")
		if err != nil {
			return err
		}
		cfg.User = user
	}

	if !cfg.PasswordSet {
		fmt.Fprint(out, "Enter password: ")
		pass, err := input.ReadPassword(ctx, out)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return fmt.Errorf("reading password: %w", err)
		}
		cfg.Password = pass
		cfg.PasswordSet = true
	}
	return nil
}

func prompt(ctx context.Context, input *lineReader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := input.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no input for %q", strings.TrimSuffix(label, ": "))
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `ftpdrive v%s

A minimal passive-mode FTP client.

Usage:
  ftpdrive [options] [host [port]]

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprint(w, `
Commands:
  list                     List the remote directory
  stor <local> <remote>    Upload a file from the storage root
  retr <remote> <local>    Download a file into the storage root
  lls                      List files in the storage root
  help                     Show the commands
  exit                     Log out and quit
`)
}
