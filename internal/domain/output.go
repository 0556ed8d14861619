// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "time"

// StepStatus is the outcome of one provisioning step.
type StepStatus string

// Step outcomes.
const (
	StepDone    StepStatus = "done"
	StepSkipped StepStatus = "skipped"
	StepWarning StepStatus = "warning"
	StepFailed  StepStatus = "failed"
)

// StepResult records one step of a run.
type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthResult is the outcome of one endpoint probe.
type HealthResult struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
}

// ProvisionReport summarises a run for the operator.
type ProvisionReport struct {
	Platform   *PlatformProfile `json:"platform"`
	Config     RunConfiguration `json:"config"`
	Steps      []StepResult     `json:"steps"`
	Proxy      *ProxyResult     `json:"proxy,omitempty"`
	Health     []HealthResult   `json:"health,omitempty"`
	AppVersion string           `json:"app_version,omitempty"`
	Gateway    string           `json:"gateway_status,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
	Started    time.Time        `json:"started"`
	Duration   time.Duration    `json:"duration"`
}

// AddWarning appends a best-effort failure message.
func (r *ProvisionReport) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// Healthy reports whether every probed endpoint answered.
func (r *ProvisionReport) Healthy() bool {
	for _, h := range r.Health {
		if !h.Reachable {
			return false
		}
	}

	return true
}
