package storage

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := New(fs, "/data/images")
	require.NoError(t, err)
	return s, fs
}

func TestDirAndPathLayout(t *testing.T) {
	s, _ := newTestStore(t)

	dir, err := s.Dir("profile", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/images", "profile"), dir)

	p, err := s.Path("projects", "fullstack", "a.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/images", "projects", "fullstack", "a.png"), p)
}

func TestRejectsUnsafeSegments(t *testing.T) {
	s, _ := newTestStore(t)

	for _, tc := range []struct{ category, typ, name string }{
		{"..", "", "a.png"},
		{"profile", "../..", "a.png"},
		{"profile", "", "../secret"},
		{"profile", "a/b", "x.png"},
		{"", "", "x.png"},
		{"profile", "", ""},
	} {
		_, err := s.Path(tc.category, tc.typ, tc.name)
		assert.ErrorIs(t, err, ErrInvalidSegment, "%+v", tc)
	}
}

func TestSaveCreatesDirectoriesAndNeverOverwrites(t *testing.T) {
	s, fs := newTestStore(t)

	n, err := s.Save("projects", "fullstack", "shot.png", strings.NewReader("first"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	_, err = s.Save("projects", "fullstack", "shot.png", strings.NewReader("second"))
	assert.ErrorIs(t, err, ErrExists)

	data, err := afero.ReadFile(fs, "/data/images/projects/fullstack/shot.png")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestListToleratesMissingDirectory(t *testing.T) {
	s, _ := newTestStore(t)

	files, err := s.List("projects", "fullstack")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListSkipsDirectoriesAndSortsByName(t *testing.T) {
	s, fs := newTestStore(t)

	for _, name := range []string{"c.png", "a.jpg", "b.gif"} {
		_, err := s.Save("profile", "", name, strings.NewReader("x"))
		require.NoError(t, err)
	}
	require.NoError(t, fs.MkdirAll("/data/images/profile/nested", 0o755))

	files, err := s.List("profile", "")
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"a.jpg", "b.gif", "c.png"}, names)
}

func TestRemove(t *testing.T) {
	s, fs := newTestStore(t)

	_, err := s.Save("profile", "", "me.png", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Save("profile", "", "other.png", strings.NewReader("y"))
	require.NoError(t, err)

	require.NoError(t, s.Remove("profile", "", "me.png"))
	assert.ErrorIs(t, s.Remove("profile", "", "me.png"), ErrNotFound)

	ok, err := afero.Exists(fs, "/data/images/profile/other.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemoveDirectoryIsNotFound(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, fs.MkdirAll("/data/images/projects/fullstack", 0o755))

	assert.ErrorIs(t, s.Remove("projects", "", "fullstack"), ErrNotFound)
}

func TestRename(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Save("profile", "", "a.png"+StagingSuffix, strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Rename("profile", "", "a.png"+StagingSuffix, "a.png"))

	f, err := s.Open("profile", "", "a.png")
	require.NoError(t, err)
	defer f.Close()

	_, err = s.Open("profile", "", "a.png"+StagingSuffix)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveStaleStaging(t *testing.T) {
	s, fs := newTestStore(t)

	_, err := s.Save("profile", "", "old.png"+StagingSuffix, strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Save("profile", "", "fresh.png"+StagingSuffix, strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Save("profile", "", "kept.png", strings.NewReader("x"))
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, fs.Chtimes("/data/images/profile/old.png"+StagingSuffix, old, old))

	n, err := s.RemoveStaleStaging(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for name, want := range map[string]bool{
		"old.png" + StagingSuffix:   false,
		"fresh.png" + StagingSuffix: true,
		"kept.png":                  true,
	} {
		ok, err := afero.Exists(fs, "/data/images/profile/"+name)
		require.NoError(t, err)
		assert.Equal(t, want, ok, name)
	}
}

func TestHTTPFileSystemServesFilesOnly(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Save("profile", "", "me.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	_, err = s.Save("profile", "", "tmp.png"+StagingSuffix, strings.NewReader("x"))
	require.NoError(t, err)

	hfs := s.HTTPFileSystem()

	f, err := hfs.Open("/profile/me.png")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "pixels", string(body))

	_, err = hfs.Open("/profile")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = hfs.Open("/profile/tmp.png" + StagingSuffix)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var _ http.FileSystem = hfs
}
