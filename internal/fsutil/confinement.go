// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil confines client-derived keys to a media root.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrOutsideRoot is returned when a key resolves outside the media root.
var ErrOutsideRoot = errors.New("path escapes media root")

// NormalizeKey returns the canonical (NFC, slash separated, cleaned) form of a storage key.
// Keys produced on macOS (NFD) and Linux (NFC) therefore address the same file.
func NormalizeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrOutsideRoot)
	}
	if strings.ContainsAny(key, "\\\x00") {
		return "", fmt.Errorf("%w: key contains backslash or NUL", ErrOutsideRoot)
	}
	key = norm.NFC.String(key)
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(key)))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("%w: key must be relative: %s", ErrOutsideRoot, key)
	}
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: traversal attempt: %s", ErrOutsideRoot, key)
	}
	return clean, nil
}

// ConfineRelPath ensures that joining root and relTarget results in a path that is physically
// underneath the resolved path of root. It protects against symlink traversal and backslash bypass.
func ConfineRelPath(root, relTarget string) (string, error) {
	cleanRel, err := NormalizeKey(relTarget)
	if err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		realRoot = absRoot
	}

	return resolveAndCheck(realRoot, filepath.Join(realRoot, filepath.FromSlash(cleanRel)))
}

// resolveAndCheck resolves symlinks of fullPath and ensures it stays within realRoot.
// A missing file is resolved through its parent so callers still get a not-exist error later.
func resolveAndCheck(realRoot, fullPath string) (string, error) {
	realPath := fullPath
	if _, err := os.Lstat(fullPath); err == nil {
		rp, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = rp
	} else if rp, err := filepath.EvalSymlinks(filepath.Dir(fullPath)); err == nil {
		realPath = filepath.Join(rp, filepath.Base(fullPath))
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, realPath)
	}
	return realPath, nil
}
