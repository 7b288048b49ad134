// Package controller sits between the interactive shell and an FTP session.
//
// Every operation logs its failure and hands the error back to the caller,
// so one failed command never ends the shell. Remote names for downloads are
// checked here before the server is contacted.
package controller

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ftpdrive/ftp"
)

// ErrInvalidRemotePath is returned for a remote download path that is
// empty or contains a forbidden character.
var ErrInvalidRemotePath = errors.New("invalid remote path")

// forbiddenChars may not appear in a remote download path.
const forbiddenChars = `/\:*?"<>|`

// Session is the part of *ftp.Client the controller drives.
type Session interface {
	Login(user, pass string) (*ftp.Response, error)
	List(w io.Writer) (*ftp.Response, error)
	UploadFile(localPath, remotePath string) error
	DownloadFile(remotePath, localPath string) error
	Logout() (*ftp.Response, error)
}

// Controller dispatches shell commands to a Session.
type Controller struct {
	session Session
	out     io.Writer
	logger  *slog.Logger
}

// New returns a Controller writing listings to out. A nil logger discards
// log output.
func New(session Session, out io.Writer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{session: session, out: out, logger: logger}
}

// ValidateRemotePath rejects an empty path and any path containing one of
// / \ : * ? " < > |.
func ValidateRemotePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidRemotePath)
	}
	if i := strings.IndexAny(path, forbiddenChars); i >= 0 {
		return fmt.Errorf("%w: invalid character %q in %q", ErrInvalidRemotePath, path[i], path)
	}
	return nil
}

// Login authenticates and returns the server's last reply.
func (c *Controller) Login(user, pass string) (*ftp.Response, error) {
	resp, err := c.session.Login(user, pass)
	if err != nil {
		c.logger.Error("login failed", "user", user, "error", err)
		return nil, err
	}
	if resp.IsNegative() {
		c.logger.Warn("login rejected", "user", user, "code", resp.Code, "message", resp.Message)
	}
	return resp, nil
}

// List writes the remote directory listing to the controller's output.
func (c *Controller) List() error {
	if _, err := c.session.List(c.out); err != nil {
		c.logger.Error("failed to list files", "error", err)
		return err
	}
	return nil
}

// UploadFile sends localPath from the storage root to remotePath.
func (c *Controller) UploadFile(localPath, remotePath string) error {
	if err := c.session.UploadFile(localPath, remotePath); err != nil {
		c.logger.Error("failed to upload file", "local", localPath, "remote", remotePath, "error", err)
		return err
	}
	return nil
}

// DownloadFile fetches remotePath into localPath under the storage root.
// An invalid remotePath is rejected without contacting the server.
func (c *Controller) DownloadFile(remotePath, localPath string) error {
	if err := ValidateRemotePath(remotePath); err != nil {
		c.logger.Error("invalid path", "remote", remotePath, "error", err)
		return err
	}
	if err := c.session.DownloadFile(remotePath, localPath); err != nil {
		c.logger.Error("failed to download file", "remote", remotePath, "local", localPath, "error", err)
		return err
	}
	return nil
}

// Logout ends the session.
func (c *Controller) Logout() error {
	if _, err := c.session.Logout(); err != nil {
		c.logger.Error("logout failed", "error", err)
		return err
	}
	return nil
}
