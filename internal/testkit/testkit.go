// Package testkit checks the structural invariants of call sites and rule
// caches. Tests call the Check helpers; the stress command calls the error
// returning forms after a run.
package testkit

import (
	"errors"
	"fmt"
	"testing"

	"dynsite/internal/callsite"
)

// SiteInvariants verifies a site's rule list: no nil rules, at most
// Capacity entries and no two rules with the same non-zero key.
func SiteInvariants[A, R any](s *callsite.Site[A, R]) error {
	return ruleListInvariants("site "+s.Name(), s.Rules(), s.Capacity())
}

// CacheInvariants verifies a rule cache the same way.
func CacheInvariants[A, R any](c *callsite.RuleCache[A, R]) error {
	st := c.Stats()
	return ruleListInvariants("rule cache", c.Rules(), st.Capacity)
}

func ruleListInvariants[A, R any](what string, rules []*callsite.Rule[A, R], capacity int) error {
	var errs []error
	if len(rules) > capacity {
		errs = append(errs, fmt.Errorf("%s: %d rules exceed capacity %d", what, len(rules), capacity))
	}
	seen := make(map[uint64]int, len(rules))
	for i, r := range rules {
		if r == nil {
			errs = append(errs, fmt.Errorf("%s: nil rule at %d", what, i))
			continue
		}
		if r.Key == 0 {
			continue
		}
		if j, dup := seen[r.Key]; dup {
			errs = append(errs, fmt.Errorf("%s: rules %d and %d share key %#x (%s)", what, j, i, r.Key, r.Desc))
			continue
		}
		seen[r.Key] = i
	}
	return errors.Join(errs...)
}

// CheckSite fails tb when the site breaks its invariants.
func CheckSite[A, R any](tb testing.TB, s *callsite.Site[A, R]) {
	tb.Helper()
	if err := SiteInvariants(s); err != nil {
		tb.Fatal(err)
	}
}

// CheckRuleCache fails tb when the cache breaks its invariants.
func CheckRuleCache[A, R any](tb testing.TB, c *callsite.RuleCache[A, R]) {
	tb.Helper()
	if err := CacheInvariants(c); err != nil {
		tb.Fatal(err)
	}
}
