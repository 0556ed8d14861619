// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package health probes the gateway and its public endpoint after a run.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/janderssonse/clawdhost/internal/domain"
	hostplatform "github.com/janderssonse/clawdhost/internal/platform"
	log "github.com/sirupsen/logrus"
)

// Retry schedule: 5 polls 2s apart, each a GET with a 5s timeout whose
// transient failures are retried 3 times 2s apart.
const (
	DefaultAttempts       = 5
	DefaultInterval       = 2 * time.Second
	DefaultRequestTimeout = 5 * time.Second
	DefaultRetries        = 3
	DefaultRetryInterval  = 2 * time.Second
)

var errUnreachable = errors.New("endpoint unreachable")

// Verifier implements the HealthChecker port.
type Verifier struct {
	Attempts      uint64
	Interval      time.Duration
	Retries       uint64
	RetryInterval time.Duration

	client *http.Client
	probe  func(ctx context.Context, url string) bool
	notify func(attempt uint64, url string)
}

var _ domain.HealthChecker = (*Verifier)(nil)

// NewVerifier creates a verifier with the default schedule.
func NewVerifier() *Verifier {
	v := &Verifier{
		Attempts:      DefaultAttempts,
		Interval:      DefaultInterval,
		Retries:       DefaultRetries,
		RetryInterval: DefaultRetryInterval,
		client:        hostplatform.GetHTTPClient(DefaultRequestTimeout),
	}
	v.probe = v.get

	return v
}

// OnAttempt registers a callback invoked before every poll.
func (v *Verifier) OnAttempt(fn func(attempt uint64, url string)) {
	v.notify = fn
}

// CheckReachable polls url until it answers with a status below 400 or the
// attempts are exhausted.
func (v *Verifier) CheckReachable(ctx context.Context, url string) bool {
	var attempt uint64

	operation := func() error {
		attempt++
		if v.notify != nil {
			v.notify(attempt, url)
		}

		if v.probe(ctx, url) {
			return nil
		}

		return errUnreachable
	}

	// At least one poll, even when Attempts was left at zero.
	retries := uint64(0)
	if v.Attempts > 1 {
		retries = v.Attempts - 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(v.Interval), retries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		log.WithFields(log.Fields{"url": url, "attempts": attempt}).Warn("health check failed")

		return false
	}

	log.WithFields(log.Fields{"url": url, "attempts": attempt}).Info("health check passed")

	return true
}

// get performs one poll: a GET whose transient failures are retried.
func (v *Verifier) get(ctx context.Context, url string) bool {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := v.client.Do(req)
		if err != nil {
			return err
		}

		_ = resp.Body.Close()

		switch {
		case resp.StatusCode < http.StatusBadRequest:
			return nil
		case transientStatus(resp.StatusCode):
			return fmt.Errorf("%w: status %d", errUnreachable, resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("%w: status %d", errUnreachable, resp.StatusCode))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(v.RetryInterval), v.Retries), ctx)

	err := backoff.Retry(operation, policy)
	if err != nil {
		log.WithError(err).WithField("url", url).Debug("health probe failed")
	}

	return err == nil
}

func transientStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Endpoints returns the URLs verified after a run.
func Endpoints(cfg domain.RunConfiguration) []string {
	return []string{
		fmt.Sprintf("http://%s", domain.GatewayUpstream),
		fmt.Sprintf("https://%s", cfg.Domain),
	}
}

// VerifyAll probes every endpoint of cfg in order.
func VerifyAll(ctx context.Context, checker domain.HealthChecker, cfg domain.RunConfiguration) []domain.HealthResult {
	endpoints := Endpoints(cfg)
	results := make([]domain.HealthResult, 0, len(endpoints))

	for _, url := range endpoints {
		results = append(results, domain.HealthResult{URL: url, Reachable: checker.CheckReachable(ctx, url)})
	}

	return results
}
