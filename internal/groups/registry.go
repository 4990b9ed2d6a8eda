package groups

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

// Registry holds named rules referenced from the YAML config with an "@"
// prefix. It gives the static config file access to behavior the original
// system expressed as inline callables: titles built from the respondent's
// own group value, names suffixed with the match's section, and so on.
type Registry struct {
	stringRules      map[string]RuleFunc[string]
	intRules         map[string]RuleFunc[*int]
	boolRules        map[string]RuleFunc[bool]
	matchStringRules map[string]MatchRuleFunc[string]
}

// NewRegistry returns a registry with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{
		stringRules:      map[string]RuleFunc[string]{},
		intRules:         map[string]RuleFunc[*int]{},
		boolRules:        map[string]RuleFunc[bool]{},
		matchStringRules: map[string]MatchRuleFunc[string]{},
	}

	// own_value:<key>:<format> renders format with %s replaced by the
	// viewing respondent's value for the group key.
	// match_value:<key>:<format> does the same with the match's value.
	// Registered dynamically via prefix in lookup, see below.
	return r
}

// RegisterString adds a named respondent-level string rule.
func (r *Registry) RegisterString(name string, fn RuleFunc[string]) {
	r.stringRules[name] = fn
}

// RegisterInt adds a named respondent-level count/precision rule.
func (r *Registry) RegisterInt(name string, fn RuleFunc[*int]) {
	r.intRules[name] = fn
}

// RegisterBool adds a named visibility rule.
func (r *Registry) RegisterBool(name string, fn RuleFunc[bool]) {
	r.boolRules[name] = fn
}

// RegisterMatchString adds a named per-match string rule.
func (r *Registry) RegisterMatchString(name string, fn MatchRuleFunc[string]) {
	r.matchStringRules[name] = fn
}

func (r *Registry) stringRule(name string) (RuleFunc[string], error) {
	if fn, ok := builtinString(name); ok {
		return fn, nil
	}
	fn, ok := r.stringRules[name]
	if !ok {
		return nil, eris.Errorf("groups: unknown string rule %q", name)
	}
	return fn, nil
}

func (r *Registry) intRule(name string) (RuleFunc[*int], error) {
	fn, ok := r.intRules[name]
	if !ok {
		return nil, eris.Errorf("groups: unknown int rule %q", name)
	}
	return fn, nil
}

func (r *Registry) boolRule(name string) (RuleFunc[bool], error) {
	fn, ok := r.boolRules[name]
	if !ok {
		return nil, eris.Errorf("groups: unknown bool rule %q", name)
	}
	return fn, nil
}

func (r *Registry) matchStringRule(name string) (MatchRuleFunc[string], error) {
	if fn, ok := builtinMatchString(name); ok {
		return fn, nil
	}
	fn, ok := r.matchStringRules[name]
	if !ok {
		return nil, eris.Errorf("groups: unknown match rule %q", name)
	}
	return fn, nil
}

// builtinString handles "own_value:<key>:<format>" rules, where <format>
// contains %s for the respondent's value of group key <key>.
func builtinString(name string) (RuleFunc[string], bool) {
	key, format, ok := splitTemplateRule(name, "own_value:")
	if !ok {
		return nil, false
	}
	return func(ctx RuleContext) string {
		return strings.ReplaceAll(format, "%s", ctx.Respondent.Groups[key])
	}, true
}

// builtinMatchString handles two template forms:
//   - "match_value:<key>:<format>" — %s is the match's group value
//   - "name_with_value:<key>:<format>" — %n is the match's full name, %s
//     the match's group value
func builtinMatchString(name string) (MatchRuleFunc[string], bool) {
	if key, format, ok := splitTemplateRule(name, "match_value:"); ok {
		return func(ctx RuleContext, match model.Respondent) string {
			return strings.ReplaceAll(format, "%s", match.Groups[key])
		}, true
	}
	if key, format, ok := splitTemplateRule(name, "name_with_value:"); ok {
		return func(ctx RuleContext, match model.Respondent) string {
			out := strings.ReplaceAll(format, "%n", match.FullName)
			return strings.ReplaceAll(out, "%s", match.Groups[key])
		}, true
	}
	return nil, false
}

func splitTemplateRule(name, prefix string) (key, format string, ok bool) {
	if !strings.HasPrefix(name, prefix) {
		return "", "", false
	}
	rest := strings.SplitN(strings.TrimPrefix(name, prefix), ":", 2)
	if len(rest) != 2 || rest[0] == "" {
		return "", "", false
	}
	return rest[0], rest[1], true
}

// toGroup converts one YAML entry into a Group using the registry.
func (entry groupYAML) toGroup(registry *Registry) (Group, error) {
	g := Group{
		Code:             entry.Code,
		VisibleWhenEmpty: entry.VisibleWhenEmpty,
		Order:            entry.Order,
	}

	if entry.Title != nil {
		if name, ok := ruleName(*entry.Title); ok {
			fn, err := registry.stringRule(name)
			if err != nil {
				return Group{}, eris.Wrapf(err, "group %q title", entry.Code)
			}
			g.Title = ByFunc(fn)
		} else {
			g.Title = Const(*entry.Title)
		}
	}

	var err error
	if g.MaxResults, err = intField(*registry, entry.MaxResults, entry.Code, "max_results"); err != nil {
		return Group{}, err
	}
	if g.Precision, err = intField(*registry, entry.Precision, entry.Code, "precision"); err != nil {
		return Group{}, err
	}

	if entry.Description != nil {
		if name, ok := ruleName(*entry.Description); ok {
			fn, err := registry.matchStringRule(name)
			if err != nil {
				return Group{}, eris.Wrapf(err, "group %q description", entry.Code)
			}
			g.Description = ByMatchFunc(fn)
		} else {
			g.Description = MatchConst(*entry.Description)
		}
	}

	if entry.NameFormat != nil {
		if name, ok := ruleName(*entry.NameFormat); ok {
			fn, err := registry.matchStringRule(name)
			if err != nil {
				return Group{}, eris.Wrapf(err, "group %q name_format", entry.Code)
			}
			g.NameFormat = ByMatchFunc(fn)
		} else {
			g.NameFormat = MatchConst(*entry.NameFormat)
		}
	}

	if entry.Visible != nil {
		if name, ok := ruleName(*entry.Visible); ok {
			fn, err := registry.boolRule(name)
			if err != nil {
				return Group{}, eris.Wrapf(err, "group %q visible", entry.Code)
			}
			g.Visible = ByFunc(fn)
		} else {
			visible, err := strconv.ParseBool(*entry.Visible)
			if err != nil {
				return Group{}, eris.Errorf("groups: group %q visible must be a bool or @rule, got %q", entry.Code, *entry.Visible)
			}
			g.Visible = Const(visible)
		}
	}

	return g, nil
}

// intField parses a nullable int rule field: "none" -> nil constant,
// "@name" -> registered rule, otherwise a literal int.
func intField(registry Registry, raw *string, code, field string) (Rule[*int], error) {
	if raw == nil {
		return Rule[*int]{}, nil
	}
	if name, ok := ruleName(*raw); ok {
		fn, err := registry.intRule(name)
		if err != nil {
			return Rule[*int]{}, eris.Wrapf(err, "group %q %s", code, field)
		}
		return ByFunc(fn), nil
	}
	if strings.EqualFold(*raw, "none") {
		return Const[*int](nil), nil
	}
	v, err := strconv.Atoi(*raw)
	if err != nil {
		return Rule[*int]{}, eris.Errorf("groups: group %q %s must be an int, \"none\" or @rule, got %q", code, field, *raw)
	}
	return Const(&v), nil
}

func ruleName(value string) (string, bool) {
	if strings.HasPrefix(value, "@") {
		return strings.TrimPrefix(value, "@"), true
	}
	return "", false
}
