package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// Registry holds every known rule. It is populated once at startup and
// read-only afterwards; selections derived from it are what runs carry.
type Registry struct {
	units []Unit
	byID  map[string]Unit
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Unit)}
}

// Register adds a rule. Duplicate, reserved, and malformed IDs are
// rejected; rules observe registration order for dispatch tie-breaks.
func (r *Registry) Register(u Unit) error {
	id := u.Meta().ID
	if !validRuleID(id) {
		return fmt.Errorf("invalid rule ID %q", id)
	}
	if id == source.SyntaxRule || id == CrashRule {
		return fmt.Errorf("rule ID %q is reserved", id)
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("rule %q registered twice", id)
	}
	r.byID[id] = u
	r.units = append(r.units, u)
	return nil
}

// MustRegister panics on registration failure; builtin rule tables use it.
func (r *Registry) MustRegister(units ...Unit) {
	for _, u := range units {
		if err := r.Register(u); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the rule registered under id.
func (r *Registry) Lookup(id string) (Unit, bool) {
	u, ok := r.byID[id]
	return u, ok
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.units) }

// All returns every registered rule ordered by priority, then by
// registration. This is the dispatch order.
func (r *Registry) All() []Unit {
	out := make([]Unit, len(r.units))
	copy(out, r.units)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Meta().Priority < out[j].Meta().Priority
	})
	return out
}

// IDs returns all registered rule IDs in alphabetical order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// validRuleID accepts lowercase words joined by single hyphens, the shape
// every shipped rule ID has.
func validRuleID(id string) bool {
	if id == "" || id[0] == '-' || id[len(id)-1] == '-' {
		return false
	}
	prev := byte(0)
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if prev == '-' {
				return false
			}
		default:
			return false
		}
		prev = c
	}
	return true
}

// Selection is the frozen per-run rule set: which rules dispatch and at
// what severity. It is immutable and shared across workers.
type Selection struct {
	units    []Unit
	severity map[string]tt.Severity
}

// Select resolves configuration into a selection. Rules whose default
// severity is off stay out unless explicitly enabled; naming the same rule
// in both lists is an error, as is any reference to an unregistered rule,
// so mistakes surface before a single file is read.
func (r *Registry) Select(enabled, disabled []string, overrides map[string]tt.Severity) (*Selection, error) {
	for _, id := range enabled {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("unknown rule %q in enabled list", id)
		}
	}
	for _, id := range disabled {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("unknown rule %q in disabled list", id)
		}
	}
	for id := range overrides {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("unknown rule %q in severity overrides", id)
		}
	}

	enabledSet := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		enabledSet[id] = true
	}
	disabledSet := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		if enabledSet[id] {
			return nil, fmt.Errorf("rule %q is both enabled and disabled", id)
		}
		disabledSet[id] = true
	}

	sel := &Selection{severity: make(map[string]tt.Severity)}
	for _, u := range r.All() {
		meta := u.Meta()
		sev := meta.Severity
		if override, ok := overrides[meta.ID]; ok {
			sev = override
		} else if sev == tt.SeverityOff && enabledSet[meta.ID] {
			// Enabling a default-off rule without an override gives it
			// a baseline severity.
			sev = tt.SeverityWarning
		}
		if disabledSet[meta.ID] || sev == tt.SeverityOff {
			continue
		}
		sel.units = append(sel.units, u)
		sel.severity[meta.ID] = sev
	}
	return sel, nil
}

// Units returns the selected rules in dispatch order.
func (s *Selection) Units() []Unit { return s.units }

// Enabled reports whether the rule dispatches in this run.
func (s *Selection) Enabled(id string) bool {
	_, ok := s.severity[id]
	return ok
}

// SeverityFor returns the effective severity for a selected rule, or
// SeverityOff for rules outside the selection.
func (s *Selection) SeverityFor(id string) tt.Severity {
	return s.severity[id]
}

// Fingerprint digests the selection identity: rule IDs, versions, and
// effective severities, plus the failure threshold. Cache entries carry it
// so any configuration change invalidates prior results.
func (s *Selection) Fingerprint(failOn tt.Severity) string {
	lines := make([]string, 0, len(s.units))
	for _, u := range s.units {
		meta := u.Meta()
		lines = append(lines, fmt.Sprintf("%s@%d=%s", meta.ID, meta.Version, s.severity[meta.ID]))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		fmt.Fprintln(h, line)
	}
	fmt.Fprintf(h, "fail-on=%s\n", failOn)
	return hex.EncodeToString(h.Sum(nil))
}
