package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	fixed := time.UnixMilli(1700000000000)
	m.now = func() time.Time { return fixed }
	return m
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing png: %v", err)
	}
	return path
}

func TestSaveImage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	path, err := m.SaveImage(ctx, writePNG(t, 40, 20))
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if filepath.Dir(path) != m.Dir() {
		t.Errorf("expected image in %s, got %s", m.Dir(), path)
	}
	if filepath.Base(path) != "1700000000000.jpg" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening saved image: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("saved image is not a JPEG: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 20 {
		t.Errorf("expected 40x20, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestSaveImageFileURI(t *testing.T) {
	m := newTestManager(t)

	path, err := m.SaveImage(context.Background(), "file://"+writePNG(t, 10, 10))
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if !m.Owns(path) {
		t.Errorf("expected %s to be owned", path)
	}
}

func TestSaveImageSameMillisecond(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	src := writePNG(t, 10, 10)

	first, err := m.SaveImage(ctx, src)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := m.SaveImage(ctx, src)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct paths, both %s", first)
	}
	if filepath.Base(second) != "1700000000001.jpg" {
		t.Errorf("unexpected second name %s", filepath.Base(second))
	}
}

func TestSaveImageErrors(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.SaveImage(ctx, filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrMedia) {
		t.Errorf("missing source: expected ErrMedia, got %v", err)
	}

	_, err = m.SaveImageFrom(ctx, strings.NewReader("not an image at all"))
	if !errors.Is(err, ErrMedia) {
		t.Errorf("bad data: expected ErrMedia, got %v", err)
	}

	entries, _ := os.ReadDir(m.Dir())
	if len(entries) != 0 {
		t.Errorf("expected no files after failures, got %d", len(entries))
	}
}

func TestCopyImage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	orig, err := m.SaveImage(ctx, writePNG(t, 10, 10))
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	dup, err := m.CopyImage(ctx, orig)
	if err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	if dup == orig {
		t.Fatal("copy shares the original path")
	}

	if err := m.DeleteImage(ctx, orig); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if _, err := os.Stat(dup); err != nil {
		t.Errorf("copy should survive deleting the original: %v", err)
	}
}

func TestDeleteImage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	path, err := m.SaveImage(ctx, writePNG(t, 10, 10))
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if err := m.DeleteImage(ctx, path); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file gone, stat err = %v", err)
	}

	// Already gone.
	if err := m.DeleteImage(ctx, path); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestDeleteImageOutsideDir(t *testing.T) {
	m := newTestManager(t)

	outside := writePNG(t, 10, 10)
	err := m.DeleteImage(context.Background(), outside)
	if !errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("outside file must not be touched: %v", err)
	}

	traversal := filepath.Join(m.Dir(), "..", "..", "etc", "passwd")
	if m.Owns(traversal) {
		t.Errorf("expected %s not to be owned", traversal)
	}
	if m.Owns(m.Dir()) {
		t.Error("the image directory itself must not be owned")
	}
}

func TestPurge(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	path, err := m.SaveImage(ctx, writePNG(t, 10, 10))
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if err := m.Purge(ctx); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected image gone after purge, stat err = %v", err)
	}

	// Saving recreates the directory.
	if _, err := m.SaveImage(ctx, writePNG(t, 10, 10)); err != nil {
		t.Errorf("SaveImage after purge: %v", err)
	}
}
