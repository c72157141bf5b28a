package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("Rate limit exceeded", ErrorCodeRateLimited)

	assert.Equal(t, "Rate limit exceeded", resp.Error)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.Code)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestErrorResponse_WithDetail(t *testing.T) {
	resp := NewErrorResponse("Validation failed", ErrorCodeValidation).
		WithDetail("subject", "subject is required")

	assert.Equal(t, "subject is required", resp.Details["subject"])
}

func TestHealthCheckResponse_AddComponent(t *testing.T) {
	h := NewHealthCheckResponse(HealthStatusHealthy)

	h.AddComponent("counter_store", HealthStatusHealthy, "")
	assert.Equal(t, HealthStatusHealthy, h.Status)

	h.AddComponent("stats", "unhealthy", "connection refused")
	assert.Equal(t, HealthStatusDegraded, h.Status)
	assert.Equal(t, "connection refused", h.Components["stats"].Message)
}
