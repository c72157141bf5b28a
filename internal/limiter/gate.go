package limiter

import (
	"context"
	"log/slog"
	"time"
)

// FailureMode selects what the gate does when the counter store cannot be
// consulted: admit the request (rate limiting is protective, not a
// correctness concern) or reject it (the limit must never be silently
// bypassed during an outage).
type FailureMode string

const (
	// FailClosed rejects requests during store outages. The safer default:
	// a limit that silently stops being enforced is worse than turning away
	// traffic that would probably have been admitted.
	FailClosed FailureMode = "closed"

	// FailOpen admits requests during store outages with best-effort headers.
	FailOpen FailureMode = "open"
)

// Outcome is the terminal state of one admission. Exactly one outcome is
// reached per request.
type Outcome string

const (
	OutcomeAdmitted       Outcome = "admitted"
	OutcomeRejected       Outcome = "rejected"
	OutcomeDegradedAdmit  Outcome = "degraded_admit"
	OutcomeDegradedReject Outcome = "degraded_reject"
)

// degradedRetryAfter is the retry hint attached to fail-closed rejections.
// Short, because the outage may clear at any moment and the client was not
// actually over its limit.
const degradedRetryAfter = 1 * time.Second

// GateResult carries the decision plus the context needed to emit response
// fields: the concrete store key that was checked, the limit that applied,
// and whether the decision was made in degraded mode.
type GateResult struct {
	Decision Decision
	Key      Key
	Limit    Limit
	Tier     string
	Outcome  Outcome

	// Degraded is true when the store could not be consulted and the
	// configured FailureMode produced the decision instead of a count.
	Degraded bool
}

// Allowed reports whether the request may proceed.
func (r GateResult) Allowed() bool {
	return r.Decision.Allowed
}

// Gate is the request-path integration point: it resolves the policy for an
// identity and target, runs the window check, and converts store failures
// into a degraded decision per the configured failure mode. Admit never
// returns an error; the request path always gets a usable result.
//
// A Gate holds no mutable state, so instances scale horizontally with no
// coordination beyond the shared counter store itself.
type Gate struct {
	resolver   *Resolver
	accountant *Accountant
	mode       FailureMode
	logger     *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithFailureMode sets the store-outage policy. Default is FailClosed.
func WithFailureMode(mode FailureMode) GateOption {
	return func(g *Gate) {
		if mode == FailOpen || mode == FailClosed {
			g.mode = mode
		}
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGate creates a Gate over the given resolver and accountant.
func NewGate(resolver *Resolver, accountant *Accountant, opts ...GateOption) *Gate {
	g := &Gate{
		resolver:   resolver,
		accountant: accountant,
		mode:       FailClosed,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Admit decides whether one request from subject (on the given tier) against
// route may proceed. The route also selects policy overrides; pass an empty
// route to check the subject's global quota.
//
// Per-request state machine: resolve the limit, run the check, then land in
// exactly one of admitted, rejected, degraded-admit, or degraded-reject.
func (g *Gate) Admit(ctx context.Context, subject, tier, route string) GateResult {
	key := NewKey(subject, route)
	lim := g.resolver.Resolve(tier, key.Scope)

	res := GateResult{
		Key:   key,
		Limit: lim,
		Tier:  tier,
	}

	decision, err := g.accountant.Check(ctx, key.String(), lim.Requests, lim.Window)
	if err != nil {
		return g.degrade(ctx, res, err)
	}

	res.Decision = decision
	if decision.Allowed {
		res.Outcome = OutcomeAdmitted
	} else {
		res.Outcome = OutcomeRejected
	}
	return res
}

// degrade applies the failure mode when the store could not produce a count.
// Neither branch surfaces the error to the request path: a rate limiter
// dependency failure must not be blamed on the protected resource.
func (g *Gate) degrade(ctx context.Context, res GateResult, err error) GateResult {
	g.logger.WarnContext(ctx, "Rate limit check degraded",
		"key", res.Key.String(),
		"failure_mode", string(g.mode),
		"error", err,
	)

	res.Degraded = true

	if g.mode == FailOpen {
		res.Decision = Decision{
			Allowed: true,
			Limit:   res.Limit.Requests,
		}
		res.Outcome = OutcomeDegradedAdmit
		return res
	}

	res.Decision = Decision{
		Allowed:    false,
		Limit:      res.Limit.Requests,
		RetryAfter: degradedRetryAfter,
	}
	res.Outcome = OutcomeDegradedReject
	return res
}
