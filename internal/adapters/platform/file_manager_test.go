// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManager_FileExists(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	fm := platform.NewFileManager(platform.NewMockCommandRunner(false), false, false)

	testFile := filepath.Join(tmpDir, "Caddyfile")
	require.NoError(t, os.WriteFile(testFile, []byte("example.com {}"), 0600))

	dangling := filepath.Join(tmpDir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "missing"), dangling))

	tests := []struct {
		name   string
		path   string
		expect bool
	}{
		{"existing file", testFile, true},
		{"non-existing file", filepath.Join(tmpDir, "nonexistent"), false},
		{"directory", tmpDir, true},
		{"dangling symlink", dangling, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, fm.FileExists(tt.path))
		})
	}
}

func TestFileManager_WriteAndReadFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fm := platform.NewFileManager(platform.NewMockCommandRunner(false), false, false)

	path := filepath.Join(t.TempDir(), "nginx", "conf.d", "clawdbot.conf")
	require.NoError(t, fm.WriteFile(ctx, path, []byte("server {}\n")))

	data, err := fm.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "server {}\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileManager_CopyFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tmpDir := t.TempDir()
	fm := platform.NewFileManager(platform.NewMockCommandRunner(false), false, false)

	src := filepath.Join(tmpDir, "Caddyfile")
	dest := filepath.Join(tmpDir, "Caddyfile.orig")
	require.NoError(t, os.WriteFile(src, []byte(":80 {\n}\n"), 0600))

	require.NoError(t, fm.CopyFile(ctx, src, dest))
	assert.FileExists(t, dest)

	require.Error(t, fm.CopyFile(ctx, filepath.Join(tmpDir, "missing"), dest))
}

func TestFileManager_Symlink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tmpDir := t.TempDir()
	fm := platform.NewFileManager(platform.NewMockCommandRunner(false), false, false)

	target := filepath.Join(tmpDir, "sites-available", "clawdbot")
	link := filepath.Join(tmpDir, "sites-enabled", "clawdbot")
	require.NoError(t, fm.WriteFile(ctx, target, []byte("server {}\n")))

	// Re-linking an existing link must converge.
	require.NoError(t, fm.Symlink(ctx, target, link))
	require.NoError(t, fm.Symlink(ctx, target, link))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestFileManager_EscalatesOnPermissionDenied(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	ctx := context.Background()
	runner := platform.NewMockCommandRunner(false)
	fm := platform.NewFileManager(runner, false, false)

	readOnly := filepath.Join(t.TempDir(), "etc")
	require.NoError(t, os.MkdirAll(readOnly, 0o500))

	t.Cleanup(func() { _ = os.Chmod(readOnly, 0o700) })

	require.NoError(t, fm.WriteFile(ctx, filepath.Join(readOnly, "Caddyfile"), []byte("x")))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0], "sudo install -m 0644 "), calls[0])
	assert.True(t, strings.HasSuffix(calls[0], filepath.Join(readOnly, "Caddyfile")), calls[0])
}

func TestFileManager_DryRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fm := platform.NewFileManager(platform.NewMockCommandRunner(false), false, true)

	path := filepath.Join(t.TempDir(), "conf", "clawdbot.conf")
	require.NoError(t, fm.WriteFile(ctx, path, []byte("server {}\n")))
	assert.NoFileExists(t, path)
}

func TestMockFileManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fm := platform.NewMockFileManager(false)

	_, err := fm.ReadFile("/etc/caddy/Caddyfile")
	require.ErrorIs(t, err, platform.ErrMockFileNotFound)

	require.NoError(t, fm.WriteFile(ctx, "/etc/caddy/Caddyfile", []byte("a")))
	require.NoError(t, fm.WriteFile(ctx, "/etc/caddy/Caddyfile", []byte("b")))
	require.NoError(t, fm.Symlink(ctx, "/etc/nginx/sites-available/clawdbot", "/etc/nginx/sites-enabled/clawdbot"))

	content, ok := fm.Content("/etc/caddy/Caddyfile")
	assert.True(t, ok)
	assert.Equal(t, "b", content)
	assert.Equal(t, 2, fm.WriteCount("/etc/caddy/Caddyfile"))
	assert.True(t, fm.FileExists("/etc/nginx/sites-enabled/clawdbot"))

	target, ok := fm.LinkTarget("/etc/nginx/sites-enabled/clawdbot")
	assert.True(t, ok)
	assert.Equal(t, "/etc/nginx/sites-available/clawdbot", target)
}
