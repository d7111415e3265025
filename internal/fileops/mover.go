package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// maxCollisionSuffix bounds the " (N)" suffixes tried when a destination
// already exists.
const maxCollisionSuffix = 1000

// Mover transfers files into a media root.
type Mover struct {
	root       string
	extensions map[string]struct{}
}

// New returns a Mover restricted to root that accepts the given extensions
// (compared case-insensitively, with or without a leading dot).
func New(root string, extensions []string) (*Mover, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("media root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &Mover{root: filepath.Clean(abs), extensions: allowed}, nil
}

// Root returns the media root.
func (m *Mover) Root() string {
	return m.root
}

// Copy duplicates src at dst (or a " (N)" variant when dst exists) and
// returns the final path. src is left in place.
func (m *Mover) Copy(src, dst string) (string, error) {
	target, err := m.prepare("copy", src, dst)
	if err != nil {
		return "", err
	}
	if err := copyVerified(src, target); err != nil {
		return "", &Error{Code: CodeIO, Op: "copy", Path: src, Err: err}
	}
	return target, nil
}

// Move relocates src to dst (or a " (N)" variant when dst exists) and returns
// the final path. Cross-device moves copy then remove the source.
func (m *Mover) Move(src, dst string) (string, error) {
	target, err := m.prepare("move", src, dst)
	if err != nil {
		return "", err
	}
	if err := os.Rename(src, target); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
			return "", &Error{Code: CodeIO, Op: "move", Path: src, Err: err}
		}
		if err := copyVerified(src, target); err != nil {
			return "", &Error{Code: CodeIO, Op: "move", Path: src, Err: fmt.Errorf("copy across devices: %w", err)}
		}
		if err := os.Remove(src); err != nil {
			return "", &Error{Code: CodeIO, Op: "move", Path: src, Err: fmt.Errorf("remove source after copy: %w", err)}
		}
	}
	return target, nil
}

// Validate checks src and dst without touching the filesystem beyond a stat
// of src.
func (m *Mover) Validate(src, dst string) error {
	_, err := m.validate("validate", src, dst)
	return err
}

func (m *Mover) prepare(op, src, dst string) (string, error) {
	target, err := m.validate(op, src, dst)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", &Error{Code: CodeIO, Op: op, Path: target, Err: fmt.Errorf("create target directory: %w", err)}
	}
	free, err := nextFreePath(target)
	if err != nil {
		return "", &Error{Code: CodeIO, Op: op, Path: target, Err: err}
	}
	return free, nil
}

func (m *Mover) validate(op, src, dst string) (string, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if _, ok := m.extensions[ext]; !ok {
		return "", &Error{Code: CodeInvalidExtension, Op: op, Path: src, Err: fmt.Errorf("extension %q is not a recognised video type", filepath.Ext(src))}
	}
	target, err := filepath.Abs(dst)
	if err != nil {
		return "", &Error{Code: CodePathRestriction, Op: op, Path: dst, Err: err}
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(m.root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &Error{Code: CodePathRestriction, Op: op, Path: dst, Err: fmt.Errorf("destination is outside %s", m.root)}
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", &Error{Code: CodeIO, Op: op, Path: src, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &Error{Code: CodeIO, Op: op, Path: src, Err: errors.New("source is not a regular file")}
	}
	return target, nil
}

// nextFreePath returns path when nothing exists there, otherwise the first
// "name (N).ext" sibling that is free.
func nextFreePath(path string) (string, error) {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("stat target: %w", err)
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; n <= maxCollisionSuffix; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat target: %w", err)
		}
	}
	return "", fmt.Errorf("exhausted collision suffixes for %s", path)
}
