package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ApplyFilesystem applies parsed patches beneath opts.TargetDir.
func ApplyFilesystem(ctx context.Context, patches []Patch, opts FilesystemOptions) ([]Report, error) {
	ws, err := newFilesystemWorkspace(opts)
	if err != nil {
		return nil, err
	}
	return apply(ctx, patches, ws, opts.Options)
}

// ApplyFilesystemPatch auto-detects and parses a raw payload, then applies it
// to the filesystem.
func ApplyFilesystemPatch(ctx context.Context, payload string, opts FilesystemOptions) ([]Report, error) {
	patches, err := ParseAuto(payload)
	if err != nil {
		return nil, err
	}
	return ApplyFilesystem(ctx, patches, opts)
}

type filesystemWorkspace struct {
	root  string
	modes map[string]fs.FileMode
}

func newFilesystemWorkspace(opts FilesystemOptions) (*filesystemWorkspace, error) {
	root := strings.TrimSpace(opts.TargetDir)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		root = wd
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &filesystemWorkspace{root: root, modes: make(map[string]fs.FileMode)}, nil
}

func (ws *filesystemWorkspace) Validate(path string) *Error {
	return ValidateRelPath(ws.root, path)
}

func (ws *filesystemWorkspace) Load(path string) (string, bool, *Error) {
	abs := ws.abs(path)
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", false, nil
	case errors.Is(err, fs.ErrPermission):
		return "", false, &Error{Code: CodePermissionDenied, Path: path, Message: fmt.Sprintf("permission denied: %s", path)}
	case err != nil:
		return "", false, &Error{Code: CodeIO, Path: path, Message: fmt.Sprintf("failed to stat %s: %v", path, err)}
	case info.IsDir():
		return "", false, &Error{Code: CodeTargetIsDir, Path: path, Message: fmt.Sprintf("target is a directory, not a file: %s", path)}
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		code := CodeIO
		if errors.Is(err, fs.ErrPermission) {
			code = CodePermissionDenied
		}
		return "", false, &Error{Code: code, Path: path, Message: fmt.Sprintf("failed to read %s: %v", path, err)}
	}
	ws.modes[path] = info.Mode() & fs.ModePerm
	return string(content), true, nil
}

func (ws *filesystemWorkspace) Store(path, content string) *Error {
	abs := ws.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return &Error{Code: CodeIO, Path: path, Message: fmt.Sprintf("failed to create directory for %s: %v", path, err)}
	}
	perm := ws.modes[path]
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(abs, []byte(content), perm); err != nil {
		code := CodeIO
		if errors.Is(err, fs.ErrPermission) {
			code = CodePermissionDenied
		}
		return &Error{Code: code, Path: path, Message: fmt.Sprintf("failed to write %s: %v", path, err)}
	}
	return nil
}

func (ws *filesystemWorkspace) abs(path string) string {
	return filepath.Join(ws.root, filepath.FromSlash(cleanRelPath(path)))
}
