package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ftpdrive/ftp/internal/controller"
	"github.com/ftpdrive/ftp/storage"
)

const (
	shellPrompt = "> "
	invalidMsg  = "Invalid command or incorrect arguments."
)

// shell reads one command per line and dispatches it to the controller.
// A failed command is logged by the controller and the shell keeps going.
type shell struct {
	ctl  *controller.Controller
	root *storage.Root
	in   *lineReader
	out  io.Writer
}

// run loops until "exit", end of input or ctx is cancelled. The session is
// logged out in every case.
func (s *shell) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			_ = s.ctl.Logout()
			return err
		}

		fmt.Fprint(s.out, shellPrompt)
		line, err := s.in.ReadLine(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				fmt.Fprintln(s.out)
				return s.ctl.Logout()
			case ctx.Err() != nil:
				fmt.Fprintln(s.out)
				_ = s.ctl.Logout()
			}
			return err
		}

		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "exit" {
			return s.ctl.Logout()
		}
		s.dispatch(tokens)
	}
}

func (s *shell) dispatch(tokens []string) {
	switch {
	case tokens[0] == "list":
		_ = s.ctl.List()
	case tokens[0] == "stor" && len(tokens) == 3:
		_ = s.ctl.UploadFile(tokens[1], tokens[2])
	case tokens[0] == "retr" && len(tokens) == 3:
		_ = s.ctl.DownloadFile(tokens[1], tokens[2])
	case tokens[0] == "lls":
		s.listLocal()
	case tokens[0] == "help":
		s.help()
	default:
		fmt.Fprintln(s.out, invalidMsg)
	}
}

// listLocal prints the files under the storage root with their sizes.
func (s *shell) listLocal() {
	files, err := s.root.Walk()
	if err != nil {
		fmt.Fprintf(s.out, "lls: %v\n", err)
		return
	}
	if len(files) == 0 {
		fmt.Fprintf(s.out, "%s is empty\n", s.root.Dir())
		return
	}
	for _, f := range files {
		fmt.Fprintf(s.out, "%12d  %s\n", f.Size, f.Name)
	}
}

func (s *shell) help() {
	fmt.Fprint(s.out, `list                     List the remote directory
stor <local> <remote>    Upload a file from the storage root
retr <remote> <local>    Download a file into the storage root
lls                      List files in the storage root
help                     Show this help
exit                     Log out and quit
`)
}
