// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package platform_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkAdapter_DownloadFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		serverFunc  func(w http.ResponseWriter, r *http.Request)
		wantErr     bool
		wantContent string
	}{
		{
			name: "successful download",
			serverFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("#!/bin/bash\necho setup\n"))
			},
			wantContent: "#!/bin/bash\necho setup\n",
		},
		{
			name: "server returns 404",
			serverFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: true,
		},
		{
			name: "server returns 500",
			serverFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(tt.serverFunc))
			defer server.Close()

			destPath := filepath.Join(t.TempDir(), "download.sh")

			err := platform.NewNetworkAdapter().DownloadFile(context.Background(), server.URL, destPath)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, domain.ErrDownloadFailed)

				return
			}

			require.NoError(t, err)

			content, err := os.ReadFile(filepath.Clean(destPath))
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(content))
		})
	}
}

func TestNetworkAdapter_DownloadFileWithContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := platform.NewNetworkAdapter().DownloadFile(ctx, server.URL, filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}

func TestNetworkAdapter_FetchPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dist/latest-v22.x/" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		_, _ = w.Write([]byte(`<a href="node-v22.11.0-darwin-arm64.tar.gz">node</a>`))
	}))
	defer server.Close()

	adapter := platform.NewNetworkAdapter()

	page, err := adapter.FetchPage(context.Background(), server.URL+"/dist/latest-v22.x/")
	require.NoError(t, err)
	assert.Contains(t, page, "node-v22.11.0-darwin-arm64.tar.gz")

	_, err = adapter.FetchPage(context.Background(), server.URL+"/missing")
	require.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "404")
}

func TestNetworkAdapter_InvalidURL(t *testing.T) {
	t.Parallel()

	adapter := platform.NewNetworkAdapter()
	destPath := filepath.Join(t.TempDir(), "download.txt")

	for _, url := range []string{"ftp://example.com/file", "://not-a-url", ""} {
		err := adapter.DownloadFile(context.Background(), url, destPath)
		require.Error(t, err, url)
	}
}

func TestNetworkAdapter_DryRunDownloadWritesNothing(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := platform.NewNetworkAdapter()
	adapter.SetDryRun(true)

	destPath := filepath.Join(t.TempDir(), "setup.sh")
	require.NoError(t, adapter.DownloadFile(context.Background(), server.URL, destPath))

	assert.NoFileExists(t, destPath)
	assert.Zero(t, hits.Load())
}
