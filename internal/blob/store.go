// Package blob stores icon files under a single root directory. Keys are
// slash separated and relative to the root.
package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("blob not found")

// Object describes one stored blob.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

type Store struct {
	fs afero.Fs
}

// New wraps an afero filesystem. Tests pass afero.NewMemMapFs().
func New(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// NewOS roots the store at dir on the local disk, creating it if needed.
func NewOS(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func clean(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsRune(key, 0) || strings.Contains(key, `\`) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return path.Clean("/" + key), nil
}

// Put writes data under key, replacing any previous content. The write
// goes through a temporary file so readers never see a partial blob.
func (s *Store) Put(key string, data []byte) error {
	p, err := clean(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o750); err != nil {
		return fmt.Errorf("create folder for %s: %w", key, err)
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	p, err := clean(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Exists(key string) (bool, error) {
	p, err := clean(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	p, err := clean(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes a whole folder.
func (s *Store) DeletePrefix(prefix string) error {
	p, err := clean(prefix)
	if err != nil {
		return err
	}
	if err := s.fs.RemoveAll(p); err != nil {
		return fmt.Errorf("delete %s: %w", prefix, err)
	}
	return nil
}

// List returns every blob below prefix, sorted by key.
func (s *Store) List(prefix string) ([]Object, error) {
	root, err := clean(prefix)
	if err != nil {
		return nil, err
	}
	if ok, err := afero.DirExists(s.fs, root); err != nil || !ok {
		return nil, err
	}

	var out []Object
	err = afero.Walk(s.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		out = append(out, Object{
			Key:     strings.TrimPrefix(path.Clean(p), "/"),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
