package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToDrive(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultDir, New("").Dir())
	assert.Equal(t, "a/b", New("a/b/").Dir())
}

func TestResolve(t *testing.T) {
	t.Parallel()
	root := New("/srv/drive")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain file", input: "local.txt", want: "/srv/drive/local.txt"},
		{name: "nested file", input: "sub/dir/a.bin", want: "/srv/drive/sub/dir/a.bin"},
		{name: "inner dotdot stays inside", input: "sub/../a.bin", want: "/srv/drive/a.bin"},
		{name: "empty", input: "", wantErr: true},
		{name: "root itself", input: ".", wantErr: true},
		{name: "parent", input: "..", wantErr: true},
		{name: "escape", input: "../etc/passwd", wantErr: true},
		{name: "escape after descend", input: "sub/../../x", wantErr: true},
		{name: "absolute", input: "/etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Resolve(tt.input)
			if tt.wantErr {
				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, tt.input, nf.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder"), 0o755))
	root := New(dir)

	f, info, err := root.Open("local.txt")
	require.NoError(t, err)
	defer f.Close()
	assert.EqualValues(t, 11, info.Size())
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	for _, name := range []string{"missing.txt", "folder", "../outside.txt"} {
		_, _, err := root.Open(name)
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf, name)
	}
}

func TestOpenMissingRoot(t *testing.T) {
	t.Parallel()
	root := New(filepath.Join(t.TempDir(), "absent"))

	_, _, err := root.Open("local.txt")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, errors.Is(err, errNoRoot))
}

func TestCreatePendingMakesRoot(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "drive")
	root := New(dir)

	p, err := root.CreatePending("out.txt")
	require.NoError(t, err)
	_, err = p.WriteString("data")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "out.txt"))
	assert.True(t, os.IsNotExist(err), "target must not exist before Commit")

	require.NoError(t, p.Commit())
	assert.Equal(t, filepath.Join(dir, "out.txt"), p.Target())

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "out.txt"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	}

	files, err := root.Walk()
	require.NoError(t, err)
	assert.Equal(t, []File{{Name: "out.txt", Size: 4}}, files)

	_, err = root.CreatePending("../escape.txt")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestPendingCommitReplacesTarget(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("old"), 0o644))
	root := New(dir)

	p, err := root.CreatePending("notes.txt")
	require.NoError(t, err)
	_, err = p.WriteString("new contents")
	require.NoError(t, err)
	require.NoError(t, p.Commit())

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new contents", string(data))
}

func TestPendingDiscardKeepsTarget(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))
	root := New(dir)

	p, err := root.CreatePending("notes.txt")
	require.NoError(t, err)
	_, err = p.WriteString("partial")
	require.NoError(t, err)
	p.Discard()

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	files, err := root.Walk()
	require.NoError(t, err)
	assert.Equal(t, []File{{Name: "notes.txt", Size: 7}}, files, "temporary file must be removed")
}

func TestWalk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("a"), 0o644))

	files, err := New(dir).Walk()
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Name: "b.txt", Size: 2},
		{Name: "sub/a.txt", Size: 1},
	}, files)

	_, err = New(filepath.Join(dir, "nope")).Walk()
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}
