package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGender(t *testing.T) {
	tests := []struct {
		raw  string
		want Gender
	}{
		{"M", GenderMale},
		{"male", GenderMale},
		{" Man ", GenderMale},
		{"F", GenderFemale},
		{"WOMAN", GenderFemale},
		{"o", GenderOther},
		{"none", GenderUnspecified},
		{"", GenderUnspecified},
	}
	for _, tt := range tests {
		got, err := ParseGender(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseGender("robot")
	assert.Error(t, err)
}

func TestRespondent_WantsGender(t *testing.T) {
	r := Respondent{MatchGenders: []Gender{GenderFemale, GenderOther}}

	assert.True(t, r.WantsGender(GenderFemale))
	assert.True(t, r.WantsGender(GenderOther))
	assert.False(t, r.WantsGender(GenderMale))
	assert.False(t, Respondent{}.WantsGender(GenderMale), "no listed genders matches nobody")
}

func TestRespondent_Equal(t *testing.T) {
	a := Respondent{ID: 1, FullName: "Jonas Jonaitis"}
	b := Respondent{ID: 1, FullName: "Renamed"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Respondent{ID: 2}))
}

func TestAnswer_String(t *testing.T) {
	assert.Equal(t, "Taip", TextAnswer("Taip").String())
	assert.Equal(t, "3", RatingAnswer(3).String())
	assert.Equal(t, "Kinas;Muzika;Sportas", OptionsAnswer("Sportas", "Kinas", "Muzika").String(),
		"options render sorted")
	assert.Equal(t, "", OptionsAnswer().String())
}
