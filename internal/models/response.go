// Package models - API response types and error handling.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Machine-readable error codes alongside human-readable messages
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// DecisionResponse is the JSON rendering of one gate decision, returned by
// the remote check endpoint.
//
// Client Usage:
// - Check Allowed first
// - When denied, wait RetryAfterMs before trying again
// - Degraded means the decision came from the failure-mode policy rather
//   than an actual count; headers derived from it are best-effort
type DecisionResponse struct {
	Allowed      bool   `json:"allowed"`                  // Primary decision flag
	Limit        int    `json:"limit"`                    // Resolved request limit
	Remaining    int    `json:"remaining"`                // Slots left in the window, never negative
	ResetMs      int64  `json:"reset_ms"`                 // Time until the oldest counted entry expires
	RetryAfterMs int64  `json:"retry_after_ms,omitempty"` // Suggested wait (only when denied)
	Tier         string `json:"tier,omitempty"`           // Tier the decision was resolved against
	Scope        string `json:"scope"`                    // Scope that was checked
	Degraded     bool   `json:"degraded,omitempty"`       // True when the store could not be consulted
}

// PolicyEntry is one (requests, window) pair in the policies listing.
type PolicyEntry struct {
	Requests int   `json:"requests"`
	WindowMs int64 `json:"window_ms"`
}

// PoliciesResponse exposes the immutable policy tables for introspection.
type PoliciesResponse struct {
	DefaultTier string                 `json:"default_tier"`
	FailureMode string                 `json:"failure_mode"`
	Tiers       map[string]PolicyEntry `json:"tiers"`
	Overrides   map[string]PolicyEntry `json:"overrides,omitempty"`
}

// DecisionEvent is one audited decision as returned by the stats endpoint.
type DecisionEvent struct {
	Subject  string    `json:"subject"`
	Scope    string    `json:"scope"`
	Tier     string    `json:"tier"`
	Outcome  string    `json:"outcome"`
	Allowed  bool      `json:"allowed"`
	Degraded bool      `json:"degraded"`
	At       time.Time `json:"at"`
}

// RecentDecisionsResponse lists recently audited decisions, newest first.
type RecentDecisionsResponse struct {
	Decisions  []DecisionEvent `json:"decisions"`
	TotalCount int             `json:"total_count"`
}

// ErrorResponse provides structured error information with debugging context.
type ErrorResponse struct {
	Error     string            `json:"error"`             // Human-readable message
	Code      string            `json:"code"`              // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"` // Field-specific context
	Timestamp time.Time         `json:"timestamp"`         // When the error occurred
}

// HealthCheckResponse reports overall service health plus per-component
// status for dependency debugging.
type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth describes one dependency's health.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Error code constants for programmatic error handling.
const (
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeValidation         = "VALIDATION_ERROR"    // 422: Input validation failed
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Resource doesn't exist
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"     // 400/405: Invalid request data or method
	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED" // 429: Over the sliding-window limit
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Dependency temporarily down
)

// Health status constants.
const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
)

// NewErrorResponse creates a structured error response.
func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}

// WithDetail attaches field-specific context to the error.
func (e *ErrorResponse) WithDetail(field, message string) *ErrorResponse {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[field] = message
	return e
}

// NewHealthCheckResponse creates a health response with the given status.
func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth),
	}
}

// AddComponent records one dependency's health and downgrades the overall
// status when the component is unhealthy.
func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:  status,
		Message: message,
	}
	if status != HealthStatusHealthy {
		h.Status = HealthStatusDegraded
	}
}
