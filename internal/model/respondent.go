// Package model defines the survey domain types shared across the matcher.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Gender is a respondent's declared gender.
type Gender string

const (
	GenderMale        Gender = "MALE"
	GenderFemale      Gender = "FEMALE"
	GenderOther       Gender = "OTHER"
	GenderUnspecified Gender = "UNSPECIFIED"
)

// genderAliases maps accepted spellings to canonical values.
var genderAliases = map[string]Gender{
	"M":           GenderMale,
	"MALE":        GenderMale,
	"MAN":         GenderMale,
	"F":           GenderFemale,
	"FEMALE":      GenderFemale,
	"WOMAN":       GenderFemale,
	"O":           GenderOther,
	"OTHER":       GenderOther,
	"UNSPECIFIED": GenderUnspecified,
	"NONE":        GenderUnspecified,
}

// ParseGender maps a raw cell value to a Gender. Empty input is UNSPECIFIED.
func ParseGender(value string) (Gender, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return GenderUnspecified, nil
	}
	g, ok := genderAliases[value]
	if !ok {
		return "", eris.Errorf("model: unknown gender value %q", value)
	}
	return g, nil
}

// Respondent is one survey participant. Instances are built once by the
// survey parser and never mutated afterwards.
type Respondent struct {
	ID           int            `json:"id"`
	FullName     string         `json:"full_name"`
	Gender       Gender         `json:"gender"`
	MatchGenders []Gender       `json:"match_genders"`
	Groups       map[string]string `json:"groups"`
	Responses    map[int]Answer `json:"responses"`
}

// WantsGender reports whether g is one of the genders this respondent
// accepts as matches.
func (r Respondent) WantsGender(g Gender) bool {
	for _, want := range r.MatchGenders {
		if want == g {
			return true
		}
	}
	return false
}

// Equal reports identity equality: two respondents are the same iff their
// ids match, regardless of other fields.
func (r Respondent) Equal(other Respondent) bool {
	return r.ID == other.ID
}

// Match pairs a respondent id with a compatibility score.
type Match struct {
	RespondentID  int     `json:"respondent_id"`
	Compatibility float64 `json:"compatibility"`
}

// MatchResult is one formatted entry in a resolved group.
type MatchResult struct {
	FullName      string  `json:"full_name"`
	Description   string  `json:"description,omitempty"`
	Compatibility string  `json:"compatibility"`
	Score         float64 `json:"score"`
}

// GroupResult is one resolved display group with its ranked entries.
type GroupResult struct {
	Code    string        `json:"code"`
	Title   string        `json:"title"`
	Results []MatchResult `json:"results"`
}
