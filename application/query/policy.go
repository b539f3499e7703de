package query

import (
	"fmt"
	"net/url"
	"strings"

	"forecast-backend/domain/versioning"
)

// Constraints is the process-wide query policy. It is built once at start-up
// and only read afterwards, so it is safe for concurrent use.
type Constraints struct {
	maxTop         int
	allowed        map[versioning.APIVersion]map[DirectiveKind]bool
	defaultAllowed map[DirectiveKind]bool
}

// NewConstraints validates and freezes a policy. Every allowed set must
// include top so that the page-size ceiling can always be applied.
func NewConstraints(maxTop int, allowed map[versioning.APIVersion][]DirectiveKind, defaultAllowed []DirectiveKind) (*Constraints, error) {
	if maxTop < 1 {
		return nil, fmt.Errorf("maxTop must be at least 1, got %d", maxTop)
	}

	toSet := func(kinds []DirectiveKind) (map[DirectiveKind]bool, error) {
		set := make(map[DirectiveKind]bool, len(kinds))
		for _, k := range kinds {
			set[k] = true
		}
		if !set[DirectiveTop] {
			return nil, fmt.Errorf("allowed directives must include %q", DirectiveTop)
		}
		return set, nil
	}

	c := &Constraints{
		maxTop:  maxTop,
		allowed: make(map[versioning.APIVersion]map[DirectiveKind]bool, len(allowed)),
	}
	for v, kinds := range allowed {
		set, err := toSet(kinds)
		if err != nil {
			return nil, fmt.Errorf("version %s: %w", v, err)
		}
		c.allowed[v.Key()] = set
	}

	if defaultAllowed == nil {
		defaultAllowed = AllDirectives()
	}
	set, err := toSet(defaultAllowed)
	if err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	c.defaultAllowed = set
	return c, nil
}

// MaxTop is the page-size ceiling.
func (c *Constraints) MaxTop() int {
	return c.maxTop
}

// Allows reports whether the directive kind is permitted for the version.
func (c *Constraints) Allows(v versioning.APIVersion, kind DirectiveKind) bool {
	if set, ok := c.allowed[v.Key()]; ok {
		return set[kind]
	}
	return c.defaultAllowed[kind]
}

// AllowedFor lists the permitted kinds for the version in canonical order.
func (c *Constraints) AllowedFor(v versioning.APIVersion) []DirectiveKind {
	var kinds []DirectiveKind
	for _, k := range directiveKinds {
		if c.Allows(v, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Enforcement records what the enforcer changed, for logs and metrics.
type Enforcement struct {
	Stripped  []DirectiveKind
	Clamped   bool
	Defaulted bool
}

// Enforcer applies Constraints to parsed directive sets.
type Enforcer struct {
	constraints *Constraints
}

// NewEnforcer creates an enforcer over a frozen policy.
func NewEnforcer(constraints *Constraints) *Enforcer {
	return &Enforcer{constraints: constraints}
}

// Constraints exposes the policy the enforcer applies.
func (e *Enforcer) Constraints() *Constraints {
	return e.constraints
}

// Enforce strips directives the version does not allow, then applies the
// page-size ceiling. The input set is not modified.
func (e *Enforcer) Enforce(set DirectiveSet, version versioning.APIVersion) (DirectiveSet, Enforcement) {
	var report Enforcement

	for _, kind := range set.Present() {
		if !e.constraints.Allows(version, kind) {
			set = set.Without(kind)
			report.Stripped = append(report.Stripped, kind)
		}
	}

	if !e.constraints.Allows(version, DirectiveTop) {
		return set, report
	}

	maxTop := e.constraints.MaxTop()
	switch {
	case set.Top == nil:
		set.Top = intPtr(maxTop)
		report.Defaulted = true
	case *set.Top > maxTop:
		set.Top = intPtr(maxTop)
		report.Clamped = true
	}
	return set, report
}

// RewriteHook rewrites a raw query string before it is parsed a second time.
// Hooks must be pure: the same input always gives the same output.
type RewriteHook func(raw string) string

// StripDirectives returns a hook that removes the named directives, with or
// without their "$" prefix, and keeps every other parameter untouched.
func StripDirectives(kinds ...DirectiveKind) RewriteHook {
	drop := make(map[DirectiveKind]bool, len(kinds))
	for _, k := range kinds {
		drop[k] = true
	}

	return func(raw string) string {
		raw = strings.TrimPrefix(raw, "?")
		if raw == "" {
			return raw
		}

		kept := make([]string, 0, strings.Count(raw, "&")+1)
		for _, segment := range strings.Split(raw, "&") {
			key, _, _ := strings.Cut(segment, "=")
			if name, err := url.QueryUnescape(key); err == nil {
				if kind, ok := ParseDirectiveKind(name); ok && drop[kind] {
					continue
				}
			}
			kept = append(kept, segment)
		}
		return strings.Join(kept, "&")
	}
}
