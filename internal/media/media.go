// Package media stores item photos in an app-private directory.
//
// Every stored image belongs to exactly one record. Callers delete the old
// image before pointing a record at a new one, delete a record's image when
// the record goes, and copy an image rather than share its path.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/imaging"
)

// Media errors. ErrPermissionDenied wraps ErrMedia.
var (
	ErrMedia            = errors.New("media operation failed")
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", ErrMedia)
	ErrNotOwned         = fmt.Errorf("%w: path is outside the media directory", ErrMedia)
)

// ImagesDir is the subdirectory images are written to.
const ImagesDir = "images"

// Manager saves, copies and deletes images below one directory.
type Manager struct {
	dir    string
	maxDim int
	now    func() time.Time

	// mu serializes filename allocation within the process.
	mu sync.Mutex
}

// NewManager returns a Manager storing images in dir/images.
func NewManager(dir string) (*Manager, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving media directory: %w", ErrMedia, err)
	}
	return &Manager{
		dir:    filepath.Join(abs, ImagesDir),
		maxDim: imaging.MaxDimension,
		now:    time.Now,
	}, nil
}

// Dir returns the directory images are stored in.
func (m *Manager) Dir() string {
	return m.dir
}

// Owns reports whether path lies inside the image directory.
func (m *Manager) Owns(path string) bool {
	if path == "" {
		return false
	}
	rel, err := filepath.Rel(m.dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// SaveImage copies the image at source into the image directory and returns
// the stored path. source may be a plain path or a file:// URI.
func (m *Manager) SaveImage(ctx context.Context, source string) (string, error) {
	f, err := os.Open(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return "", fmt.Errorf("%w: opening source image: %w", ErrMedia, err)
	}
	defer f.Close()

	return m.SaveImageFrom(ctx, f)
}

// SaveImageFrom stores the image read from r. The image is converted to a
// JPEG no larger than the configured dimension.
func (m *Manager) SaveImageFrom(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := imaging.Process(r, m.maxDim)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMedia, err)
	}
	return m.write(data)
}

// CopyImage duplicates an owned image and returns the new path.
func (m *Manager) CopyImage(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !m.Owns(path) {
		return "", ErrNotOwned
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading image: %w", ErrMedia, err)
	}
	return m.write(data)
}

// DeleteImage removes an owned image. A missing file is not an error.
func (m *Manager) DeleteImage(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.Owns(path) {
		return ErrNotOwned
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: deleting image: %w", ErrMedia, err)
	}
	return nil
}

// Purge removes the image directory and every file in it.
func (m *Manager) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("%w: purging images: %w", ErrMedia, err)
	}
	return nil
}

// Open opens an owned image for reading.
func (m *Manager) Open(path string) (*os.File, error) {
	if !m.Owns(path) {
		return nil, ErrNotOwned
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening image: %w", ErrMedia, err)
	}
	return f, nil
}

// write stores data as <epoch-millis>.jpg, moving to the next millisecond
// while the name is taken.
func (m *Manager) write(data []byte) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating image directory: %w", ErrMedia, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := m.now().UnixMilli()
	for {
		path := filepath.Join(m.dir, strconv.FormatInt(stamp, 10)+".jpg")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			stamp++
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: creating image file: %w", ErrMedia, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("%w: writing image: %w", ErrMedia, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("%w: writing image: %w", ErrMedia, err)
		}
		return path, nil
	}
}
