package limiter

import "strings"

// ScopeGlobal is the scope used when a check is not bound to a specific route,
// i.e. the subject's plan-wide quota.
const ScopeGlobal = "global"

// keyPrefix namespaces limiter keys in the shared store so they cannot collide
// with keys written by other services sharing the same Redis database.
const keyPrefix = "ratelimit:"

// fieldSep separates key fields. The ASCII unit separator cannot appear in
// subject identifiers (IPs, API key names, user IDs), which keeps composite
// keys collision-free without escaping: ("a:b", "c") and ("a", "b:c") render
// differently.
const fieldSep = "\x1f"

// Key identifies what is being limited: a subject (authenticated principal or
// fallback network origin) within a scope (a specific route, or ScopeGlobal).
// Keys are ephemeral; they exist in the store only while entries remain.
type Key struct {
	Subject string
	Scope   string
}

// NewKey builds a Key, defaulting an empty scope to ScopeGlobal.
func NewKey(subject, scope string) Key {
	if scope == "" {
		scope = ScopeGlobal
	}
	return Key{Subject: subject, Scope: scope}
}

// String renders the key for use in the shared counter store.
func (k Key) String() string {
	var b strings.Builder
	b.Grow(len(keyPrefix) + len(k.Subject) + len(fieldSep) + len(k.Scope))
	b.WriteString(keyPrefix)
	b.WriteString(k.Subject)
	b.WriteString(fieldSep)
	b.WriteString(k.Scope)
	return b.String()
}
