package survey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

const sampleCSV = `FULL_NAME,GENDER,GENDERS_TO_MATCH_WITH,GROUP|klase|Klasėje:|3,YN,SC|4,MC|3,RT|5
Ona Onaitė,F,M,2a,Taip,B,Kinas;Sportas,3
Jonas Jonaitis,M,F;O,2a,Taip,B,Sportas,4
Tomas Tomaitis,,M;F,2b,Ne,A,,0
`

func TestReadCSV_FullFile(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sampleCSV), Options{})
	require.NoError(t, err)

	require.Len(t, s.Questions, 4)
	assert.Equal(t, model.QuestionYesNo, s.Questions[0].Type)
	assert.Equal(t, 4, s.Questions[0].ID, "question id is the column index")
	assert.Equal(t, model.QuestionSingleChoice, s.Questions[1].Type)
	assert.Equal(t, 4, s.Questions[1].NumOptions)
	assert.Equal(t, model.QuestionMultipleChoice, s.Questions[2].Type)
	assert.Equal(t, model.QuestionRating, s.Questions[3].Type)
	assert.Equal(t, 5, s.Questions[3].NumOptions)

	require.Len(t, s.GroupCols, 1)
	assert.Equal(t, "klase", s.GroupCols[0].Key)
	assert.Equal(t, "Klasėje:", s.GroupCols[0].Title)
	require.NotNil(t, s.GroupCols[0].MaxResults)
	assert.Equal(t, 3, *s.GroupCols[0].MaxResults)

	require.Len(t, s.Respondents, 3)

	ona := s.Respondents[0]
	assert.Equal(t, 0, ona.ID, "respondent id is the row index")
	assert.Equal(t, "Ona Onaitė", ona.FullName)
	assert.Equal(t, model.GenderFemale, ona.Gender)
	assert.Equal(t, []model.Gender{model.GenderMale}, ona.MatchGenders)
	assert.Equal(t, map[string]string{"klase": "2a"}, ona.Groups)
	assert.Equal(t, model.TextAnswer("Taip"), ona.Responses[4])
	assert.Equal(t, model.OptionsAnswer("Kinas", "Sportas"), ona.Responses[6])
	assert.Equal(t, model.RatingAnswer(3), ona.Responses[7])

	jonas := s.Respondents[1]
	assert.Equal(t, []model.Gender{model.GenderFemale, model.GenderOther}, jonas.MatchGenders)

	tomas := s.Respondents[2]
	assert.Equal(t, model.GenderUnspecified, tomas.Gender, "empty gender cell")
	assert.Equal(t, model.OptionsAnswer(), tomas.Responses[6], "empty multi-choice cell is an empty set")
}

func TestReadCSV_NoGenderColumns(t *testing.T) {
	data := "FULL_NAME,YN\nOna,Taip\n"
	s, err := ReadCSV(strings.NewReader(data), Options{})
	require.NoError(t, err)

	r := s.Respondents[0]
	assert.Equal(t, model.GenderUnspecified, r.Gender)
	assert.Equal(t, []model.Gender{model.GenderUnspecified}, r.MatchGenders,
		"without gender columns everyone matches the unspecified pool")
}

func TestReadCSV_CustomDelimiters(t *testing.T) {
	data := "FULL_NAME;MC|3\nOna;Kinas+Sportas\n"
	s, err := ReadCSV(strings.NewReader(data), Options{Delimiter: ";", MultiDelimiter: "+"})
	require.NoError(t, err)
	assert.Equal(t, model.OptionsAnswer("Kinas", "Sportas"), s.Respondents[0].Responses[1])
}

func TestReadCSV_UnknownColumnsIgnored(t *testing.T) {
	data := "Timestamp,FULL_NAME,Comments,YN\nx,Ona,whatever,Taip\n"
	s, err := ReadCSV(strings.NewReader(data), Options{})
	require.NoError(t, err)
	assert.Len(t, s.Questions, 1)
	assert.Equal(t, "Ona", s.Respondents[0].FullName)
}

func TestReadCSV_GroupValueAbsence(t *testing.T) {
	data := "FULL_NAME,GROUP|klase,YN\nOna,,Taip\nJonas,NO_RESPONSE,Ne\nTomas,2a,Taip\n"
	s, err := ReadCSV(strings.NewReader(data), Options{})
	require.NoError(t, err)

	assert.Empty(t, s.Respondents[0].Groups)
	assert.Empty(t, s.Respondents[1].Groups, "NO_RESPONSE leaves the group unset")
	assert.Equal(t, map[string]string{"klase": "2a"}, s.Respondents[2].Groups)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty file", ""},
		{"no full name column", "GENDER,GENDERS_TO_MATCH_WITH,YN\nM,F,Taip\n"},
		{"gender without match genders", "FULL_NAME,GENDER,YN\nOna,F,Taip\n"},
		{"no respondent rows", "FULL_NAME,YN\n"},
		{"empty full name", "FULL_NAME,YN\n,Taip\n"},
		{"short row", "FULL_NAME,YN\nOna\n"},
		{"underscore group key", "FULL_NAME,GROUP|_secret,YN\nOna,x,Taip\n"},
		{"unnamed group", "FULL_NAME,GROUP|,YN\nOna,x,Taip\n"},
		{"bad gender", "FULL_NAME,GENDER,GENDERS_TO_MATCH_WITH,YN\nOna,X,M,Taip\n"},
		{"single choice without option count", "FULL_NAME,SC\nOna,B\n"},
		{"rating out of range", "FULL_NAME,RT|5\nOna,5\n"},
		{"rating negative", "FULL_NAME,RT|5\nOna,-1\n"},
		{"rating not a number", "FULL_NAME,RT|5\nOna,high\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data), Options{})
			assert.Error(t, err)
		})
	}
}
