// Package storage keeps uploaded images on a filesystem laid out as
// <root>/<category>/<type?>/<filename>. The layout is part of the public
// contract because image URLs encode it directly.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// StagingSuffix marks files that are still being validated. They are never
// listed or served.
const StagingSuffix = ".uploading"

var (
	// ErrNotFound is returned when the addressed file does not exist.
	ErrNotFound = errors.New("storage: file not found")
	// ErrInvalidSegment is returned for path segments that would escape
	// their directory or address more than one level.
	ErrInvalidSegment = errors.New("storage: invalid path segment")
	// ErrExists is returned when a write would overwrite an existing file.
	ErrExists = errors.New("storage: file already exists")
)

// Store reads and writes images directly on disk. It holds no in-memory
// state about stored files; every call goes to the filesystem.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a Store rooted at root on fs, creating the root if needed.
func New(fs afero.Fs, root string) (*Store, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", root, err)
	}
	return &Store{fs: fs, root: root}, nil
}

// NewOS creates a Store on the operating system filesystem.
func NewOS(root string) (*Store, error) {
	return New(afero.NewOsFs(), root)
}

// Root returns the base directory of the store.
func (s *Store) Root() string { return s.root }

// ValidSegment reports whether seg can be used as a single path element.
func ValidSegment(seg string) bool {
	if seg == "" || seg == "." || seg == ".." {
		return false
	}
	return !strings.ContainsAny(seg, "/\\\x00")
}

// Dir returns root/category/type. An empty type omits the segment.
func (s *Store) Dir(category, typ string) (string, error) {
	if !ValidSegment(category) {
		return "", fmt.Errorf("%w: category %q", ErrInvalidSegment, category)
	}
	if typ == "" {
		return filepath.Join(s.root, category), nil
	}
	if !ValidSegment(typ) {
		return "", fmt.Errorf("%w: type %q", ErrInvalidSegment, typ)
	}
	return filepath.Join(s.root, category, typ), nil
}

// Path returns the location of one stored file.
func (s *Store) Path(category, typ, name string) (string, error) {
	dir, err := s.Dir(category, typ)
	if err != nil {
		return "", err
	}
	if !ValidSegment(name) {
		return "", fmt.Errorf("%w: filename %q", ErrInvalidSegment, name)
	}
	return filepath.Join(dir, name), nil
}

// Save writes r to category/type/name, creating missing directories. It
// never overwrites: an existing name yields ErrExists. A failed copy
// leaves no partial file behind.
func (s *Store) Save(category, typ, name string, r io.Reader) (int64, error) {
	path, err := s.Path(category, typ, name)
	if err != nil {
		return 0, err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("storage: create directory: %w", err)
	}

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return 0, fmt.Errorf("storage: create %s: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(path)
		return 0, fmt.Errorf("storage: write %s: %w", path, err)
	}
	return n, nil
}

// Open opens a stored file for reading.
func (s *Store) Open(category, typ, name string) (afero.File, error) {
	path, err := s.Path(category, typ, name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return f, nil
}

// Rename moves a file within one category/type directory.
func (s *Store) Rename(category, typ, from, to string) error {
	src, err := s.Path(category, typ, from)
	if err != nil {
		return err
	}
	dst, err := s.Path(category, typ, to)
	if err != nil {
		return err
	}
	if _, err := s.fs.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, dst)
	}
	if err := s.fs.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: rename %s: %w", src, err)
	}
	return nil
}

// Remove unlinks one file. A missing file, or a directory at that path,
// yields ErrNotFound.
func (s *Store) Remove(category, typ, name string) error {
	path, err := s.Path(category, typ, name)
	if err != nil {
		return err
	}
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ErrNotFound
	}
	if err := s.fs.Remove(path); err != nil {
		// Lost a race with another delete.
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// List returns the regular files directly inside category/type, sorted by
// name. A missing directory yields no entries.
func (s *Store) List(category, typ string) ([]os.FileInfo, error) {
	dir, err := s.Dir(category, typ)
	if err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", dir, err)
	}

	files := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, e)
	}
	return files, nil
}

// RemoveStaleStaging deletes staging files last modified before cutoff,
// anywhere under the root. It returns how many were removed.
func (s *Store) RemoveStaleStaging(cutoff time.Time) (int, error) {
	removed := 0
	err := afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), StagingSuffix) {
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("storage: remove stale %s: %w", path, err)
		}
		removed++
		return nil
	})
	return removed, err
}

// HTTPFileSystem exposes the store root for static serving. Directories
// and staging files are reported as missing so nothing can be enumerated.
func (s *Store) HTTPFileSystem() http.FileSystem {
	return filesOnly{afero.NewHttpFs(s.fs).Dir(s.root)}
}

type filesOnly struct {
	http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, StagingSuffix) {
		return nil, os.ErrNotExist
	}
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
