package domain

import "time"

// DiagnosticStatus indicates the outcome of a single environment check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one check result with an optional remediation hint.
type DiagnosticItem struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Status  DiagnosticStatus `json:"status" yaml:"status"`
	Message string           `json:"message" yaml:"message"`
	Hint    string           `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// DiagnosticReport aggregates checks for the doctor command.
// Warnings do not count as failures.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generated_at"`
	HasFailures bool             `json:"hasFailures" yaml:"has_failures"`
	Items       []DiagnosticItem `json:"items" yaml:"items"`
}
