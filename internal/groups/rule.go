// Package groups turns the match matrix into per-respondent display groups:
// configurable, ranked and formatted result lists plus a headline top match.
package groups

import "github.com/weekintas/valentino-matchingas/internal/model"

// RuleContext carries the inputs every presentation rule may consult. Rules
// are resolved lazily at result-generation time and never cached across
// respondents.
type RuleContext struct {
	Groups     []Group
	Respondent model.Respondent
}

// RuleFunc computes a field value from the viewing respondent's context.
type RuleFunc[T any] func(ctx RuleContext) T

// MatchRuleFunc computes a per-match field value.
type MatchRuleFunc[T any] func(ctx RuleContext, match model.Respondent) T

// Rule is a tagged constant-or-function variant for a group presentation
// field. The zero Rule is "unset" and callers apply their own fallback.
type Rule[T any] struct {
	set   bool
	value T
	fn    RuleFunc[T]
}

// Const builds a rule that always yields v.
func Const[T any](v T) Rule[T] {
	return Rule[T]{set: true, value: v}
}

// ByFunc builds a rule computed per respondent.
func ByFunc[T any](fn RuleFunc[T]) Rule[T] {
	return Rule[T]{set: true, fn: fn}
}

// IsSet reports whether the rule carries a value or function.
func (r Rule[T]) IsSet() bool { return r.set }

// Resolve returns the rule's value for the given context.
func (r Rule[T]) Resolve(ctx RuleContext) T {
	if r.fn != nil {
		return r.fn(ctx)
	}
	return r.value
}

// MatchRule is the per-match counterpart of Rule.
type MatchRule[T any] struct {
	set   bool
	value T
	fn    MatchRuleFunc[T]
}

// MatchConst builds a per-match rule that always yields v.
func MatchConst[T any](v T) MatchRule[T] {
	return MatchRule[T]{set: true, value: v}
}

// ByMatchFunc builds a rule computed per respondent and match.
func ByMatchFunc[T any](fn MatchRuleFunc[T]) MatchRule[T] {
	return MatchRule[T]{set: true, fn: fn}
}

// IsSet reports whether the rule carries a value or function.
func (r MatchRule[T]) IsSet() bool { return r.set }

// Resolve returns the rule's value for the given context and match.
func (r MatchRule[T]) Resolve(ctx RuleContext, match model.Respondent) T {
	if r.fn != nil {
		return r.fn(ctx, match)
	}
	return r.value
}
