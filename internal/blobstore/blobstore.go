// Package blobstore wraps local filesystem I/O for final download
// artifacts. The Cache Layer's disk tier does not go through it; that tier
// is BadgerDB's own storage. A bare local filesystem capability has no
// third-party library that fits better than os/io directly — see DESIGN.md.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/novelforge/novelcore/internal/utils"
)

// FS is a thin, explicit handle on a root directory. All paths passed to
// its methods are relative to Root.
type FS struct {
	Root string
}

// New returns an FS rooted at dir, creating it if it does not exist.
func New(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blobstore root %s: %w", dir, err)
	}
	return &FS{Root: dir}, nil
}

func (f *FS) path(rel string) string {
	return filepath.Join(f.Root, rel)
}

// Write writes data to rel, creating parent directories as needed, and
// replaces any existing file atomically via a temp-file rename.
func (f *FS) Write(rel string, data []byte) (string, error) {
	full := f.path(rel)
	if err := utils.EnsureDir(full); err != nil {
		return "", fmt.Errorf("creating parent dir for %s: %w", rel, err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalizing %s: %w", rel, err)
	}
	return full, nil
}

// Reserve creates rel's parent directories without creating rel itself,
// returning the absolute path a caller can then write to directly
// (assemble.WriteTXT/WriteEPUB open their own output file).
func (f *FS) Reserve(rel string) (string, error) {
	full := f.path(rel)
	if err := utils.EnsureDir(full); err != nil {
		return "", fmt.Errorf("creating parent dir for %s: %w", rel, err)
	}
	return full, nil
}

// Stat returns the FileInfo for rel.
func (f *FS) Stat(rel string) (os.FileInfo, error) {
	return os.Stat(f.path(rel))
}

// Open opens rel for reading.
func (f *FS) Open(rel string) (*os.File, error) {
	return os.Open(f.path(rel))
}

// Read reads the full contents of rel.
func (f *FS) Read(rel string) ([]byte, error) {
	return os.ReadFile(f.path(rel))
}

// Remove deletes rel if it exists.
func (f *FS) Remove(rel string) error {
	err := os.Remove(f.path(rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Path returns the absolute path rel resolves to, without touching the
// filesystem.
func (f *FS) Path(rel string) string {
	return f.path(rel)
}

// WaitStable polls rel's size every interval, up to checks times, and
// returns nil once the file exists and its size is unchanged across two
// consecutive reads — the Task Registry's "fully materialized" signal
// for an artifact a concurrent writer may still be flushing. It returns
// an error if the file never stabilizes within the budget or ctx is
// cancelled first.
func (f *FS) WaitStable(ctx context.Context, rel string, checks int, interval time.Duration) error {
	full := f.path(rel)
	var lastSize int64 = -1

	for i := 0; i < checks; i++ {
		info, err := os.Stat(full)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("stat %s: %w", rel, err)
			}
		} else if info.Size() == lastSize {
			return nil
		} else {
			lastSize = info.Size()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("%s did not stabilize within %d checks", rel, checks)
}
