package services

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ConfigurationError means a feature cannot run because its settings are absent.
type ConfigurationError struct {
	Feature string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s is not configured", e.Feature)
	}
	return fmt.Sprintf("%s is not configured: missing %s", e.Feature, strings.Join(e.Missing, ", "))
}

// UpstreamError is a non-success answer from the completion API.
// Message is empty when the upstream body carried nothing usable.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}
