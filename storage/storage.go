// Package storage confines the client's local file access to a single
// directory, the storage root.
//
// Uploads read from files that must already exist under the root; downloads
// write into the root, creating it on first use. Paths that would escape the
// root are rejected with a NotFoundError, the same as missing files, so a
// caller never learns anything about the filesystem outside the root.
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kr/fs"
	"github.com/pkg/errors"
)

// DefaultDir is the storage root used when none is configured.
const DefaultDir = "drive"

// NotFoundError reports a local path that is missing, is not a regular
// file, or lies outside the storage root.
type NotFoundError struct {
	// Path is the path as given by the caller
	Path string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return "storage: " + e.Path + ": not found: " + e.Err.Error()
	}
	return "storage: " + e.Path + ": not found"
}

// Unwrap returns the underlying cause.
func (e *NotFoundError) Unwrap() error { return e.Err }

var (
	errOutsideRoot = errors.New("path escapes storage root")
	errNotRegular  = errors.New("not a regular file")
	errNoRoot      = errors.New("storage root does not exist")
)

// Root is a local directory that all local transfer paths are resolved
// against.
type Root struct {
	dir string
}

// New returns a Root for dir. An empty dir selects DefaultDir.
// The directory is not touched until it is used.
func New(dir string) *Root {
	if dir == "" {
		dir = DefaultDir
	}
	return &Root{dir: filepath.Clean(dir)}
}

// Dir returns the root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Resolve maps name to a path inside the root. Absolute names and names
// that climb out of the root with ".." fail with a NotFoundError.
func (r *Root) Resolve(name string) (string, error) {
	if name == "" {
		return "", &NotFoundError{Path: name}
	}
	if filepath.IsAbs(name) {
		return "", &NotFoundError{Path: name, Err: errOutsideRoot}
	}
	clean := filepath.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &NotFoundError{Path: name, Err: errOutsideRoot}
	}
	return filepath.Join(r.dir, clean), nil
}

// Open opens name for upload. The root must already exist and name must be
// a regular file inside it.
func (r *Root) Open(name string) (*os.File, os.FileInfo, error) {
	if err := r.exists(); err != nil {
		return nil, nil, &NotFoundError{Path: name, Err: err}
	}

	full, err := r.Resolve(name)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, nil, &NotFoundError{Path: name, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, nil, &NotFoundError{Path: name, Err: errNotRegular}
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "storage: open %s", full)
	}
	return f, info, nil
}

// CreatePending starts a download into name, creating the root first if
// it does not exist yet. Data goes to a temporary file next to name; name
// itself is untouched until Commit.
func (r *Root) CreatePending(name string) (*Pending, error) {
	if err := r.Ensure(); err != nil {
		return nil, err
	}

	target, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "storage: create %s", dir)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.part")
	if err != nil {
		return nil, errors.Wrapf(err, "storage: create temp for %s", target)
	}
	// CreateTemp uses 0600; downloads get the usual file mode.
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, errors.Wrapf(err, "storage: chmod %s", f.Name())
	}
	return &Pending{File: f, target: target}, nil
}

// Ensure creates the root directory if it is missing.
func (r *Root) Ensure() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errors.Wrapf(err, "storage: create root %s", r.dir)
	}
	return nil
}

// Pending is a download in progress. Exactly one of Commit or Discard
// must be called.
type Pending struct {
	*os.File
	target string
}

// Target returns the path the download will be stored at.
func (p *Pending) Target() string {
	return p.target
}

// Commit closes the temporary file and moves it over the target.
func (p *Pending) Commit() error {
	if err := p.File.Close(); err != nil {
		_ = os.Remove(p.File.Name())
		return errors.Wrapf(err, "storage: close %s", p.File.Name())
	}
	if err := os.Rename(p.File.Name(), p.target); err != nil {
		_ = os.Remove(p.File.Name())
		return errors.Wrapf(err, "storage: rename to %s", p.target)
	}
	return nil
}

// Discard closes and deletes the temporary file, leaving any existing
// target as it was.
func (p *Pending) Discard() {
	_ = p.File.Close()
	_ = os.Remove(p.File.Name())
}

// File describes one regular file found by Walk.
type File struct {
	// Name is the path relative to the root, using forward slashes
	Name string

	// Size is the file size in bytes
	Size int64
}

// Walk returns every regular file below the root, sorted by name.
// A missing root yields a NotFoundError.
func (r *Root) Walk() ([]File, error) {
	if err := r.exists(); err != nil {
		return nil, &NotFoundError{Path: r.dir, Err: err}
	}

	var files []File
	walker := fs.Walk(r.dir)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, errors.Wrapf(err, "storage: walk %s", walker.Path())
		}
		info := walker.Stat()
		if !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(r.dir, walker.Path())
		if err != nil {
			return nil, errors.Wrap(err, "storage: walk")
		}
		files = append(files, File{Name: filepath.ToSlash(rel), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (r *Root) exists() error {
	info, err := os.Stat(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errNoRoot
		}
		return errors.Wrapf(err, "storage: stat %s", r.dir)
	}
	if !info.IsDir() {
		return errors.Errorf("storage root %s is not a directory", r.dir)
	}
	return nil
}
