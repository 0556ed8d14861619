// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/janderssonse/clawdhost/internal/system"
)

// ErrMockFileNotFound is returned by MockFileManager for unknown paths.
var ErrMockFileNotFound = errors.New("mock file not found")

// FileManager implements the FileManager port. System paths such as
// /etc/caddy are written through the privileged command runner when the
// process itself lacks permission.
type FileManager struct {
	runner  domain.CommandRunner
	verbose bool
	dryRun  bool
}

// NewFileManager creates a new file manager.
func NewFileManager(runner domain.CommandRunner, verbose, dryRun bool) *FileManager {
	return &FileManager{
		runner:  runner,
		verbose: verbose,
		dryRun:  dryRun,
	}
}

// FileExists checks if a file or symlink exists.
func (f *FileManager) FileExists(path string) bool {
	_, err := os.Lstat(path)

	return err == nil
}

// ReadFile reads data from a file.
func (f *FileManager) ReadFile(path string) ([]byte, error) {
	// #nosec G304 - File path comes from trusted application code
	return os.ReadFile(path)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func (f *FileManager) EnsureDir(ctx context.Context, path string) error {
	if f.verbose {
		fmt.Printf("Ensuring directory exists: %s\n", path)
	}

	if f.dryRun {
		fmt.Printf("DRY RUN: mkdir -p %s\n", path)

		return nil
	}

	err := os.MkdirAll(path, system.DirPermDefault)
	if errors.Is(err, fs.ErrPermission) {
		return f.runner.RunPrivileged(ctx, false, "mkdir", "-p", path)
	}

	return err
}

// WriteFile writes data to a file.
func (f *FileManager) WriteFile(ctx context.Context, path string, data []byte) error {
	if f.verbose {
		fmt.Printf("Writing file: %s (%d bytes)\n", path, len(data))
	}

	if f.dryRun {
		fmt.Printf("DRY RUN: write %s (%d bytes)\n", path, len(data))

		return nil
	}

	if err := f.EnsureDir(ctx, filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	err := os.WriteFile(path, data, system.FilePermDefault)
	if err == nil {
		return nil
	}

	if !errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.writePrivileged(ctx, path, data)
}

// writePrivileged stages data in a temp file and installs it as root.
func (f *FileManager) writePrivileged(ctx context.Context, path string, data []byte) error {
	tmp, err := os.CreateTemp("", "clawdhost-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to write staging file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	mode := fmt.Sprintf("%04o", system.FilePermDefault)
	if err := f.runner.RunPrivileged(ctx, false, "install", "-m", mode, tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to install %s: %w", path, err)
	}

	return nil
}

// CopyFile copies a file from source to destination.
func (f *FileManager) CopyFile(ctx context.Context, src, dest string) error {
	if f.verbose {
		fmt.Printf("Copying file: %s -> %s\n", src, dest)
	}

	data, err := f.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}

	return f.WriteFile(ctx, dest, data)
}

// Symlink points link at target, replacing any existing link.
func (f *FileManager) Symlink(ctx context.Context, target, link string) error {
	if f.verbose {
		fmt.Printf("Linking: %s -> %s\n", link, target)
	}

	if f.dryRun {
		fmt.Printf("DRY RUN: ln -sfn %s %s\n", target, link)

		return nil
	}

	if err := f.EnsureDir(ctx, filepath.Dir(link)); err != nil {
		return fmt.Errorf("failed to create link directory: %w", err)
	}

	err := os.Remove(link)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		err = os.Symlink(target, link)
	}

	if errors.Is(err, fs.ErrPermission) {
		return f.runner.RunPrivileged(ctx, false, "ln", "-sfn", target, link)
	}

	return err
}

// MockFileManager implements the FileManager port for testing.
type MockFileManager struct {
	mu      sync.Mutex
	files   map[string][]byte // path -> content
	links   map[string]string // link -> target
	dirs    map[string]bool
	writes  map[string]int
	verbose bool
}

// NewMockFileManager creates a new mock file manager for testing.
func NewMockFileManager(verbose bool) *MockFileManager {
	return &MockFileManager{
		files:   make(map[string][]byte),
		links:   make(map[string]string),
		dirs:    make(map[string]bool),
		writes:  make(map[string]int),
		verbose: verbose,
	}
}

// SetMockFile sets the content of a mock file.
func (f *MockFileManager) SetMockFile(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files[path] = content
}

// Content returns the content of a mock file.
func (f *MockFileManager) Content(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.files[path]

	return string(data), ok
}

// LinkTarget returns the target of a mock symlink.
func (f *MockFileManager) LinkTarget(link string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target, ok := f.links[link]

	return target, ok
}

// WriteCount returns how often path was written.
func (f *MockFileManager) WriteCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.writes[path]
}

// Paths lists every mock file, sorted.
func (f *MockFileManager) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	paths := make([]string, 0, len(f.files))
	for p := range f.files {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// FileExists checks if a mock file, link or directory exists.
func (f *MockFileManager) FileExists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.files[path]; ok {
		return true
	}

	if _, ok := f.links[path]; ok {
		return true
	}

	return f.dirs[path]
}

// ReadFile reads from a mock file.
func (f *MockFileManager) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	content, exists := f.files[path]
	if !exists {
		return nil, ErrMockFileNotFound
	}

	return content, nil
}

// EnsureDir records a mock directory.
func (f *MockFileManager) EnsureDir(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.verbose {
		fmt.Printf("MOCK: Ensuring directory: %s\n", path)
	}

	f.dirs[path] = true

	return nil
}

// WriteFile writes to a mock file.
func (f *MockFileManager) WriteFile(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.verbose {
		fmt.Printf("MOCK: Writing file %s (%d bytes)\n", path, len(data))
	}

	f.files[path] = append([]byte(nil), data...)
	f.writes[path]++

	return nil
}

// CopyFile copies between mock files.
func (f *MockFileManager) CopyFile(ctx context.Context, src, dest string) error {
	content, err := f.ReadFile(src)
	if err != nil {
		return err
	}

	return f.WriteFile(ctx, dest, content)
}

// Symlink records a mock link.
func (f *MockFileManager) Symlink(_ context.Context, target, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.links[link] = target

	return nil
}
