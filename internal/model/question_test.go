package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestion_MaxPoints(t *testing.T) {
	tests := []struct {
		name       string
		qt         QuestionType
		numOptions int
		wantOpts   int
		wantMax    float64
	}{
		{"yes/no ignores option count", QuestionYesNo, 7, 2, 2.0},
		{"yes/no defaults to two options", QuestionYesNo, 0, 2, 2.0},
		{"single choice", QuestionSingleChoice, 4, 4, 4.0},
		{"multiple choice", QuestionMultipleChoice, 3, 3, 4.2},
		{"rating explicit", QuestionRating, 7, 7, 6.0},
		{"rating defaults to five options", QuestionRating, 0, 5, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuestion(1, tt.qt, tt.numOptions)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpts, q.NumOptions)
			assert.InDelta(t, tt.wantMax, q.MaxPoints, 1e-9)
		})
	}
}

func TestNewQuestion_Invalid(t *testing.T) {
	_, err := NewQuestion(0, QuestionSingleChoice, 0)
	assert.Error(t, err, "single choice needs an explicit option count")

	_, err = NewQuestion(0, QuestionMultipleChoice, 0)
	assert.Error(t, err)

	_, err = NewQuestion(0, QuestionRating, 1)
	assert.Error(t, err, "a one-option rating scale cannot express distance")

	_, err = NewQuestion(0, QuestionType("XX"), 3)
	assert.Error(t, err)
}

func TestParseQuestionType(t *testing.T) {
	tests := []struct {
		heading string
		want    QuestionType
		ok      bool
	}{
		{"YN", QuestionYesNo, true},
		{"SC|4", QuestionSingleChoice, true},
		{"MC|6", QuestionMultipleChoice, true},
		{"RT|7", QuestionRating, true},
		{"RT", QuestionRating, true},
		{"FULL_NAME", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseQuestionType(tt.heading)
		assert.Equal(t, tt.ok, ok, tt.heading)
		assert.Equal(t, tt.want, got, tt.heading)
	}
}

func TestQuestionByID(t *testing.T) {
	questions := []Question{{ID: 3}, {ID: 5}}

	q, ok := QuestionByID(questions, 5)
	require.True(t, ok)
	assert.Equal(t, 5, q.ID)

	_, ok = QuestionByID(questions, 4)
	assert.False(t, ok)
}

func TestQuestion_Equal(t *testing.T) {
	a := Question{ID: 1, Type: QuestionYesNo}
	b := Question{ID: 1, Type: QuestionRating, NumOptions: 9}
	c := Question{ID: 2, Type: QuestionYesNo}

	assert.True(t, a.Equal(b), "equality is by id only")
	assert.False(t, a.Equal(c))
}
