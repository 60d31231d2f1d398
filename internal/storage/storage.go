package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage reads, writes and deletes files by logical path, e.g.
// "category/3/category_icon/logo.png".
type Storage interface {
	// Save writes r under name and returns the path actually used, which
	// differs from name when name is already taken.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Delete removes name. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Upload is a file received from a client, held in memory so it can be
// validated before it is stored.
type Upload struct {
	Filename string
	Data     []byte
}

// Reader returns a fresh reader over the upload contents.
func (u *Upload) Reader() io.Reader {
	if u == nil {
		return nil
	}
	return bytes.NewReader(u.Data)
}

var ErrInvalidPath = errors.New("invalid storage path")

// FileSystem stores files below a root directory.
type FileSystem struct {
	Root string
}

func NewFileSystem(root string) (*FileSystem, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &FileSystem{Root: root}, nil
}

func (s *FileSystem) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanPath(name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.Root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	// O_EXCL makes the name claim atomic; on collision try a suffixed name.
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) && attempt < 10 {
			clean = alternativeName(clean)
			full = filepath.Join(s.Root, filepath.FromSlash(clean))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create file: %w", err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(full)
			return "", fmt.Errorf("write file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(full)
			return "", fmt.Errorf("close file: %w", err)
		}
		return clean, nil
	}
}

func (s *FileSystem) Delete(ctx context.Context, name string) error {
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileSystem) Exists(ctx context.Context, name string) (bool, error) {
	clean, err := cleanPath(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// cleanPath rejects absolute paths and anything escaping the root.
func cleanPath(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) || strings.Contains(name, "\\") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

// alternativeName appends a short random suffix before the extension.
func alternativeName(name string) string {
	dir, file := path.Split(name)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	if i := strings.LastIndexByte(base, '_'); i > 0 && len(base)-i-1 == 8 {
		base = base[:i]
	}
	return dir + base + "_" + uuid.NewString()[:8] + ext
}
