package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"limitgate/internal/limiter"
	"limitgate/internal/models"
	"limitgate/internal/observability"
	"limitgate/internal/stats"
	"limitgate/internal/version"
)

// maxRecentDecisions caps the stats listing regardless of the requested limit.
const maxRecentDecisions = 1000

// Handlers contains HTTP handlers for the limitgate API
type Handlers struct {
	gate        *limiter.Gate
	resolver    *limiter.Resolver
	store       limiter.CounterStore
	stats       stats.Store
	metrics     *observability.GateMetrics
	defaultTier string
	failureMode string
	logger      *slog.Logger
}

// NewHandlers creates a new handlers instance. metrics may be nil when the
// metrics endpoint is disabled.
func NewHandlers(gate *limiter.Gate, resolver *limiter.Resolver, store limiter.CounterStore, statsStore stats.Store, metrics *observability.GateMetrics, policy models.PolicyConfig, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		gate:        gate,
		resolver:    resolver,
		store:       store,
		stats:       statsStore,
		metrics:     metrics,
		defaultTier: policy.DefaultTier,
		failureMode: policy.FailureMode,
		logger:      logger,
	}
}

// Check handles remote admission check requests
// POST /api/v1/check
//
// The caller gets the decision as data and applies it itself; this endpoint
// never responds 429. Callers that want enforced responses put the RateLimit
// middleware in front of their own routes instead.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	var req models.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusUnprocessableEntity, models.ErrorCodeValidation, err.Error())
		return
	}

	tier := req.Tier
	if tier == "" {
		tier = h.defaultTier
	}

	start := time.Now()
	result := h.gate.Admit(r.Context(), req.Subject, tier, req.Scope)
	h.recordDecision(r, result, time.Since(start))

	h.writeJSONResponse(w, http.StatusOK, decisionResponse(result))
}

// Policies handles policy table introspection requests
// GET /api/v1/policies
//
// The tables are loaded once at process start and never mutated, so this
// endpoint is read-only by construction.
func (h *Handlers) Policies(w http.ResponseWriter, r *http.Request) {
	resp := models.PoliciesResponse{
		DefaultTier: h.defaultTier,
		FailureMode: h.failureMode,
		Tiers:       make(map[string]models.PolicyEntry),
		Overrides:   make(map[string]models.PolicyEntry),
	}

	for name, lim := range h.resolver.Tiers() {
		resp.Tiers[name] = models.PolicyEntry{Requests: lim.Requests, WindowMs: lim.Window.Milliseconds()}
	}
	for route, lim := range h.resolver.Overrides() {
		resp.Overrides[route] = models.PolicyEntry{Requests: lim.Requests, WindowMs: lim.Window.Milliseconds()}
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// StatsRecent handles recent decision listing requests
// GET /api/v1/stats/recent?limit=100
func (h *Handlers) StatsRecent(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxRecentDecisions {
		limit = maxRecentDecisions
	}

	events, err := h.stats.Recent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list recent decisions", "error", err)
		h.writeErrorResponse(w, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Stats backend unavailable")
		return
	}

	resp := models.RecentDecisionsResponse{
		Decisions:  make([]models.DecisionEvent, 0, len(events)),
		TotalCount: len(events),
	}
	for _, ev := range events {
		resp.Decisions = append(resp.Decisions, models.DecisionEvent{
			Subject:  ev.Subject,
			Scope:    ev.Scope,
			Tier:     ev.Tier,
			Outcome:  ev.Outcome,
			Allowed:  ev.Allowed,
			Degraded: ev.Degraded,
			At:       ev.At,
		})
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// HealthCheck handles health check requests
// GET /health
//
// Reports per-component status. The response stays 200 even when degraded;
// probes inspect the status field so a store outage never looks like the
// service itself is down.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.HealthStatusHealthy)
	response.Version = version.GetInfo().Version

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		response.AddComponent("counter_store", "unhealthy", err.Error())
	} else {
		response.AddComponent("counter_store", models.HealthStatusHealthy, "")
	}

	if err := h.stats.Ping(ctx); err != nil {
		response.AddComponent("stats", "unhealthy", err.Error())
	} else {
		response.AddComponent("stats", models.HealthStatusHealthy, "")
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// recordDecision pushes one decision into metrics and the audit sink. Both
// are best-effort: the decision has already been made and must not be
// affected by observability failures.
func (h *Handlers) recordDecision(r *http.Request, result limiter.GateResult, elapsed time.Duration) {
	if h.metrics != nil {
		h.metrics.RecordCheck(r.Context(), result.Tier, string(result.Outcome), elapsed.Seconds())
	}

	ev := stats.Event{
		Subject:  result.Key.Subject,
		Scope:    result.Key.Scope,
		Tier:     result.Tier,
		Outcome:  string(result.Outcome),
		Allowed:  result.Allowed(),
		Degraded: result.Degraded,
		At:       time.Now().UTC(),
	}
	if err := h.stats.RecordDecision(r.Context(), ev); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to record decision event", "error", err)
	}
}

// decisionResponse converts a gate result into its JSON form.
func decisionResponse(result limiter.GateResult) models.DecisionResponse {
	resp := models.DecisionResponse{
		Allowed:   result.Decision.Allowed,
		Limit:     result.Decision.Limit,
		Remaining: result.Decision.Remaining,
		ResetMs:   result.Decision.Reset.Milliseconds(),
		Tier:      result.Tier,
		Scope:     result.Key.Scope,
		Degraded:  result.Degraded,
	}
	if !result.Decision.Allowed {
		resp.RetryAfterMs = result.Decision.RetryAfter.Milliseconds()
	}
	return resp
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing to send to the client.
		h.logger.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}
