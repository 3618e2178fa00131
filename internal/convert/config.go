// Package convert resolves value conversions into guarded rules.
//
// A Binder is configured by a target type, a conversion kind and a box
// flag. Given a runtime value it produces one rule: self-describing hooks
// first, then foreign interop, then a closed set of target categories
// (bool, char, array, generic collection, Seq, Iter, enum), and finally the
// platform fallback. Failures are rules too; a site that keeps seeing the
// same bad shape replays the failure instead of re-resolving.
package convert

import (
	"strings"

	"dynsite/internal/callsite"
	"dynsite/internal/capability"
	"dynsite/internal/object"
	"dynsite/internal/trace"
	"dynsite/internal/types"
)

// Config identifies a binder. Equal configs share one binder and one rule
// cache.
type Config = capability.Request

// Conversion kinds.
const (
	ImplicitCast = capability.ImplicitCast
	ExplicitCast = capability.ExplicitCast
	ImplicitTry  = capability.ImplicitTry
	ExplicitTry  = capability.ExplicitTry
)

// Rule and Site are the conversion instantiations of the call-site types.
type (
	Rule = callsite.Rule[object.Value, object.Value]
	Site = callsite.Site[object.Value, object.Value]
)

// Env holds the collaborators a pool consults.
type Env struct {
	Types *types.Interner
	Hooks *capability.Registry
	// Interop handles foreign values; nil disables step 2.
	Interop capability.Interop
	// Fallback replaces the platform fallback when set.
	Fallback capability.Fallback
	Tracer   trace.Tracer
}

// ReturnShape is the static type of successful results for cfg: object
// when boxing, or when a try conversion to a value-kinded target must be
// able to return None.
func ReturnShape(in *types.Interner, cfg Config) types.TypeID {
	if cfg.Box {
		return types.ObjectType
	}
	if cfg.Kind.IsTry() && !in.IsReferenceKind(cfg.Target) {
		return types.ObjectType
	}
	return cfg.Target
}

// DescribeConfig renders cfg as "convert(List<u8>, explicit, boxed)".
func DescribeConfig(in *types.Interner, cfg Config) string {
	var sb strings.Builder
	sb.WriteString("convert(")
	sb.WriteString(types.Label(in, cfg.Target))
	sb.WriteString(", ")
	sb.WriteString(cfg.Kind.String())
	if cfg.Box {
		sb.WriteString(", boxed")
	}
	sb.WriteString(")")
	return sb.String()
}
