package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // contract violations only
	LevelSite                // CLI commands and site misses
	LevelDetail              // adds rule cache traffic and binder spans
	LevelDebug               // adds promotions and evictions
)

var levelNames = [...]string{"off", "error", "site", "detail", "debug"}

// ceiling is the most detailed scope each level admits; 0 admits none.
var ceiling = [...]Scope{0, 0, ScopeSite, ScopeBind, ScopeRule}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the level names in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil //nolint:gosec // index into a five-element array
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether non-error events of scope pass at this level.
// Error events are admitted separately.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(ceiling) {
		return false
	}
	return scope != 0 && scope <= ceiling[l]
}
