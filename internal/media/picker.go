package media

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Permissions reports which image sources the user allowed.
type Permissions struct {
	Camera  bool `json:"camera"`
	Library bool `json:"library"`
}

// Picker lets the user choose an image. Pick returns an empty source when the
// user cancelled.
type Picker interface {
	RequestPermissions(ctx context.Context) (Permissions, error)
	Pick(ctx context.Context, useCamera bool) (string, error)
}

// PickAndSave checks the permission for the requested source, lets the user
// pick an image and stores it. It returns an empty path when the user
// cancelled.
func (m *Manager) PickAndSave(ctx context.Context, p Picker, useCamera bool) (string, error) {
	perms, err := p.RequestPermissions(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: requesting permissions: %w", ErrMedia, err)
	}
	if useCamera && !perms.Camera {
		return "", fmt.Errorf("%w: camera", ErrPermissionDenied)
	}
	if !useCamera && !perms.Library {
		return "", fmt.Errorf("%w: photo library", ErrPermissionDenied)
	}

	source, err := p.Pick(ctx, useCamera)
	if err != nil {
		return "", fmt.Errorf("%w: picking image: %w", ErrMedia, err)
	}
	if source == "" {
		return "", nil
	}
	return m.SaveImage(ctx, source)
}

// FilePicker picks a fixed file from the local file system. It has no camera.
type FilePicker struct {
	Path string
}

// RequestPermissions grants library access when the file is readable.
func (p FilePicker) RequestPermissions(context.Context) (Permissions, error) {
	if p.Path == "" {
		return Permissions{Library: true}, nil
	}
	f, err := os.Open(strings.TrimPrefix(p.Path, "file://"))
	if err != nil {
		return Permissions{}, nil
	}
	f.Close()
	return Permissions{Library: true}, nil
}

// Pick returns the configured path. An empty path means cancelled.
func (p FilePicker) Pick(_ context.Context, useCamera bool) (string, error) {
	if useCamera {
		return "", fmt.Errorf("no camera available")
	}
	return p.Path, nil
}
