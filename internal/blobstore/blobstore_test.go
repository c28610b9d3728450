package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")
	fs, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, root, fs.Root)
}

func TestWrite_CreatesParentDirsAndContent(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	full, err := fs.Write("downloads/novel_author.txt", []byte("hello"))
	require.NoError(t, err)

	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWrite_ReplacesExistingFile(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Write("a.txt", []byte("first"))
	require.NoError(t, err)
	_, err = fs.Write("a.txt", []byte("second"))
	require.NoError(t, err)

	data, err := fs.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestReserve_CreatesParentDirOnly(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	full, err := fs.Reserve("downloads/novel.epub")
	require.NoError(t, err)

	_, statErr := os.Stat(full)
	assert.True(t, os.IsNotExist(statErr))

	info, err := os.Stat(filepath.Dir(full))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRemove_NonExistentFileIsNotAnError(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, fs.Remove("does-not-exist.txt"))
}

func TestWaitStable_ReturnsOnceSizeUnchanged(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Write("stable.txt", []byte("fixed content"))
	require.NoError(t, err)

	err = fs.WaitStable(context.Background(), "stable.txt", 3, 5*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitStable_ErrorsWhenFileNeverAppears(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	err = fs.WaitStable(context.Background(), "missing.txt", 2, 5*time.Millisecond)
	assert.Error(t, err)
}

func TestWaitStable_RespectsCancellation(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = fs.WaitStable(ctx, "missing.txt", 5, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}
