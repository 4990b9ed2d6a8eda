package groups

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// AllMatchesCode is the reserved group code for the entire gender-filtered
// pool. Survey group keys may not start with an underscore, so it can never
// collide with a data-file group.
const AllMatchesCode = "__ALL__"

// ErrUnknownGroup marks a respondent group membership whose code has no
// configuration entry.
var ErrUnknownGroup = eris.New("groups: unknown group")

// Group holds the presentation rules of one display group. Every field
// except the flags is a constant-or-rule variant; unset fields fall back to
// the resolver defaults.
type Group struct {
	Code string

	// Title is the group heading; unset falls back to Code.
	Title Rule[string]
	// MaxResults limits the ranked list; unset falls back to the app
	// default, nil means unlimited.
	MaxResults Rule[*int]
	// Precision is the decimal precision for score formatting; unset falls
	// back to the app default, nil means unrounded.
	Precision Rule[*int]
	// Description is optional per-match text; unset or empty means absent.
	Description MatchRule[string]
	// NameFormat overrides the displayed match name; unset falls back to
	// the match's full name.
	NameFormat MatchRule[string]
	// Visible hides the whole group when it resolves false; unset means
	// visible.
	Visible Rule[bool]

	VisibleWhenEmpty bool
	Order            int
}

// Config is a validated set of group configurations.
type Config struct {
	groups []Group
}

// NewConfig validates group codes for uniqueness and requires the reserved
// entire-pool entry.
func NewConfig(groups []Group) (*Config, error) {
	seen := make(map[string]struct{}, len(groups))
	hasAll := false
	for _, g := range groups {
		if g.Code == "" {
			return nil, eris.New("groups: group with empty code")
		}
		if _, dup := seen[g.Code]; dup {
			return nil, eris.Errorf("groups: duplicate group code %q", g.Code)
		}
		seen[g.Code] = struct{}{}
		if g.Code == AllMatchesCode {
			hasAll = true
		}
	}
	if !hasAll {
		return nil, eris.Errorf("groups: missing entire-pool group %q", AllMatchesCode)
	}
	return &Config{groups: groups}, nil
}

// All returns the configured groups in file order.
func (c *Config) All() []Group {
	return c.groups
}

// ByCode returns the configuration for a group code.
func (c *Config) ByCode(code string) (Group, error) {
	for _, g := range c.groups {
		if g.Code == code {
			return g, nil
		}
	}
	return Group{}, eris.Wrapf(ErrUnknownGroup, "code %q", code)
}

// groupYAML is the file representation of one group entry. Rule-valued
// fields take either a literal or a registered rule name prefixed with "@".
type groupYAML struct {
	Code             string  `yaml:"code"`
	Title            *string `yaml:"title"`
	MaxResults       *string `yaml:"max_results"`
	Precision        *string `yaml:"precision"`
	Description      *string `yaml:"description"`
	NameFormat       *string `yaml:"name_format"`
	Visible          *string `yaml:"visible"`
	VisibleWhenEmpty bool    `yaml:"visible_when_empty"`
	Order            int     `yaml:"order"`
}

type configYAML struct {
	Groups []groupYAML `yaml:"groups"`
}

// LoadConfig reads group configurations from a YAML file. Fields whose value
// starts with "@" are looked up in the registry by name; other values are
// constants. Literal int fields accept "none" for nil.
func LoadConfig(path string, registry *Registry) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "groups: read config %s", path)
	}
	return parseConfig(data, registry)
}

func parseConfig(data []byte, registry *Registry) (*Config, error) {
	var raw configYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "groups: unmarshal config")
	}
	if registry == nil {
		registry = NewRegistry()
	}

	parsed := make([]Group, 0, len(raw.Groups))
	for _, entry := range raw.Groups {
		g, err := entry.toGroup(registry)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, g)
	}
	return NewConfig(parsed)
}
