// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/janderssonse/clawdhost/internal/domain"
	hostplatform "github.com/janderssonse/clawdhost/internal/platform"
)

const (
	downloadTimeout = 10 * time.Minute
	pageTimeout     = 30 * time.Second
	// maxPageSize bounds index pages; the Node.js listings are a few KiB.
	maxPageSize = 4 << 20
)

// NetworkAdapter provides network operations.
type NetworkAdapter struct {
	download *http.Client
	page     *http.Client
	dryRun   bool
}

// NewNetworkAdapter creates a new network adapter.
func NewNetworkAdapter() *NetworkAdapter {
	return &NetworkAdapter{
		download: hostplatform.GetHTTPClient(downloadTimeout),
		page:     hostplatform.GetHTTPClient(pageTimeout),
	}
}

// SetDryRun makes downloads print instead of write. Pages are still fetched.
func (n *NetworkAdapter) SetDryRun(dryRun bool) {
	n.dryRun = dryRun
}

// DownloadFile downloads a file from a URL to a destination path.
func (n *NetworkAdapter) DownloadFile(ctx context.Context, url, destPath string) error {
	if n.dryRun {
		fmt.Printf("DRY RUN: download %s -> %s\n", url, destPath)

		return nil
	}

	resp, err := n.get(ctx, n.download, url)
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	// Create the destination file
	out, err := os.Create(filepath.Clean(destPath))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	defer func() {
		_ = out.Close()
	}()

	// Copy the response body to the file
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// FetchPage returns the body of a text resource.
func (n *NetworkAdapter) FetchPage(ctx context.Context, url string) (string, error) {
	resp, err := n.get(ctx, n.page, url)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}

	return string(body), nil
}

func (n *NetworkAdapter) get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDownloadFailed, url, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrDownloadFailed, url, resp.StatusCode)
	}

	return resp, nil
}

// MockNetworkClient implements the NetworkClient port for testing.
type MockNetworkClient struct {
	Pages     map[string]string
	Downloads []string
	Err       error
}

// NewMockNetworkClient creates a mock network client serving pages.
func NewMockNetworkClient() *MockNetworkClient {
	return &MockNetworkClient{Pages: make(map[string]string)}
}

// DownloadFile records the URL.
func (m *MockNetworkClient) DownloadFile(_ context.Context, url, _ string) error {
	m.Downloads = append(m.Downloads, url)

	return m.Err
}

// FetchPage returns a preset page.
func (m *MockNetworkClient) FetchPage(_ context.Context, url string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	page, ok := m.Pages[url]
	if !ok {
		return "", fmt.Errorf("%w: %s: status %d", domain.ErrDownloadFailed, url, http.StatusNotFound)
	}

	return page, nil
}
