// Package models - API request types and input validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input for consistent key construction (trimmed strings)
// - Separate validation from normalization for clear error reporting
package models

import (
	"errors"
	"fmt"
	"strings"
)

// maxIdentifierLength bounds subject/scope strings. Limiter keys live in the
// shared store; unbounded identifiers would let a client inflate store memory
// one key at a time.
const maxIdentifierLength = 256

// CheckRequest asks the gate for one admission decision on behalf of a
// caller-resolved identity. The caller (an API gateway, a sidecar, another
// service) has already authenticated the subject and looked up its tier;
// this service only decides and accounts.
type CheckRequest struct {
	// Subject is the authenticated principal or fallback network origin
	// being limited.
	Subject string `json:"subject"`

	// Tier is the subject's plan tier. Empty means the configured default
	// tier; an unknown tier resolves to the most restrictive one.
	Tier string `json:"tier,omitempty"`

	// Scope is the route being accessed, used for per-route overrides.
	// Empty means the subject's global quota.
	Scope string `json:"scope,omitempty"`
}

// Validate checks the request for structural problems.
func (r *CheckRequest) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return errors.New("subject is required")
	}

	if len(r.Subject) > maxIdentifierLength {
		return fmt.Errorf("subject exceeds %d characters", maxIdentifierLength)
	}

	if len(r.Tier) > maxIdentifierLength {
		return fmt.Errorf("tier exceeds %d characters", maxIdentifierLength)
	}

	if len(r.Scope) > maxIdentifierLength {
		return fmt.Errorf("scope exceeds %d characters", maxIdentifierLength)
	}

	return nil
}

// Normalize trims whitespace from all identifier fields. Call after Validate.
func (r *CheckRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Tier = strings.TrimSpace(r.Tier)
	r.Scope = strings.TrimSpace(r.Scope)
}
