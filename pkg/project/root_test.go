package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRoot creates a fake project root with the marker file.
func makeRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	marker := filepath.Join(root, filepath.FromSlash(MarkerPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0755))
	require.NoError(t, os.WriteFile(marker, []byte("#!/bin/sh\n"), 0755))
	return root
}

func TestVerifyRoot(t *testing.T) {
	t.Run("root with marker", func(t *testing.T) {
		root := makeRoot(t)
		assert.NoError(t, VerifyRoot(root))
	})

	t.Run("directory without marker", func(t *testing.T) {
		err := VerifyRoot(t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotRoot))
		assert.Contains(t, err.Error(), MarkerPath)
	})

	t.Run("subdirectory of root is rejected", func(t *testing.T) {
		root := makeRoot(t)
		sub := filepath.Join(root, "cli")
		assert.ErrorIs(t, VerifyRoot(sub), ErrNotRoot)
	})

	t.Run("marker is a directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(MarkerPath)), 0755))
		assert.ErrorIs(t, VerifyRoot(root), ErrNotRoot)
	})
}

func TestFindRootFrom(t *testing.T) {
	root := makeRoot(t)
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0755))

	found, err := FindRootFrom(deep)
	require.NoError(t, err)

	// TempDir may sit behind a symlink on some platforms
	want, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, want, got)
}

func TestFindRootFrom_NotFound(t *testing.T) {
	_, err := FindRootFrom(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find project root")
}

func TestLocalDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", "_local"), LocalDir("/repo"))
}
