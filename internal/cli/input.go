package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type lineResult struct {
	line string
	err  error
}

// lineReader reads input lines in a background goroutine so a blocked read
// can be abandoned when ctx is cancelled. An abandoned read stays pending
// and its line is returned by the next ReadLine.
type lineReader struct {
	raw     io.Reader
	buf     *bufio.Reader
	pending chan lineResult
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{raw: in, buf: bufio.NewReader(in)}
}

// ReadLine returns the next line without its terminator, or ctx.Err() if
// ctx is done first.
func (lr *lineReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if lr.pending == nil {
		ch := make(chan lineResult, 1)
		lr.pending = ch
		go func() {
			line, err := readLine(lr.buf)
			ch <- lineResult{line, err}
		}()
	}

	select {
	case res := <-lr.pending:
		lr.pending = nil
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReadPassword reads without echo when the input is a terminal and falls
// back to the next input line otherwise. The terminal state is restored if
// ctx is cancelled mid-read.
func (lr *lineReader) ReadPassword(ctx context.Context, out io.Writer) (string, error) {
	f, ok := lr.raw.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return lr.ReadLine(ctx)
	}

	fd := int(f.Fd())
	state, err := term.GetState(fd)
	if err != nil {
		return "", err
	}
	ch := make(chan lineResult, 1)
	go func() {
		pass, err := term.ReadPassword(fd)
		ch <- lineResult{string(pass), err}
	}()

	select {
	case res := <-ch:
		_, _ = io.WriteString(out, "\n")
		return res.line, res.err
	case <-ctx.Done():
		_ = term.Restore(fd, state)
		_, _ = io.WriteString(out, "\n")
		return "", ctx.Err()
	}
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned as-is; io.EOF is returned only when nothing
// is left.
func readLine(input *bufio.Reader) (string, error) {
	line, err := input.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
