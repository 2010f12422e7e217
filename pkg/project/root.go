// Package project provides utilities for working with the project structure.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// LocalDirName is the project-local installation root.
	LocalDirName = "_local"
	// MarkerPath is the file, relative to the root, that identifies the project root.
	MarkerPath = "cli/sh/provision.sh"
)

// ErrNotRoot is returned when a directory is not the project root.
var ErrNotRoot = errors.New("not the project root")

// IsRoot reports whether dir contains the project marker file.
func IsRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(MarkerPath)))
	return err == nil && info.Mode().IsRegular()
}

// VerifyRoot checks that dir itself is the project root, without walking up.
func VerifyRoot(dir string) error {
	if !IsRoot(dir) {
		return fmt.Errorf("%w: %s has no %s (run from the repository root)", ErrNotRoot, dir, MarkerPath)
	}
	return nil
}

// FindRoot finds the project root by walking up from the working directory.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from start looking for the project marker.
func FindRootFrom(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if IsRoot(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (looked for %s)", MarkerPath)
}

// FindRootFromExecutable tries the directory above the running binary first,
// then falls back to walking up from the working directory.
func FindRootFromExecutable() (string, error) {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			candidate := filepath.Dir(filepath.Dir(resolved))
			if IsRoot(candidate) {
				return candidate, nil
			}
		}
	}
	return FindRoot()
}

// LocalDir returns the _local directory under root.
func LocalDir(root string) string {
	return filepath.Join(root, LocalDirName)
}
