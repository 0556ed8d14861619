// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package platform provides host-level helpers shared by the adapters.
package platform

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// GetHTTPClient returns an HTTP client configured with proxy settings.
// Respects HTTP_PROXY, HTTPS_PROXY, and NO_PROXY environment variables.
func GetHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}

// GetProxyEnv returns proxy-related environment variables for passing to subprocesses.
// Package managers and curl run under sudo lose the caller's proxy otherwise.
// Returns both uppercase and lowercase versions for maximum compatibility.
func GetProxyEnv() []string {
	var proxyEnv []string

	for _, name := range []string{"http_proxy", "https_proxy", "no_proxy"} {
		value := lookupProxyVar(name)
		if value == "" {
			continue
		}

		proxyEnv = append(proxyEnv, name+"="+value, strings.ToUpper(name)+"="+value)
	}

	return proxyEnv
}

// ConfigureAPTProxy returns apt-specific proxy configuration arguments.
// APT requires special -o options for proxy settings.
func ConfigureAPTProxy() []string {
	var args []string

	if httpProxy := lookupProxyVar("http_proxy"); httpProxy != "" {
		args = append(args, "-o", "Acquire::http::Proxy="+httpProxy)
	}

	if httpsProxy := lookupProxyVar("https_proxy"); httpsProxy != "" {
		args = append(args, "-o", "Acquire::https::Proxy="+httpsProxy)
	}

	// Return nil if no proxies configured (not empty slice)
	if len(args) == 0 {
		return nil
	}

	return args
}

// lookupProxyVar checks lowercase first (takes precedence per Unix convention).
func lookupProxyVar(name string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return os.Getenv(strings.ToUpper(name))
}
