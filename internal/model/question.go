package model

import "github.com/rotisserie/eris"

// QuestionType identifies how a question is answered and scored.
type QuestionType string

const (
	QuestionYesNo          QuestionType = "YN"
	QuestionSingleChoice   QuestionType = "SC"
	QuestionMultipleChoice QuestionType = "MC"
	QuestionRating         QuestionType = "RT"
)

// typeWeights holds the scoring weights attached to a question type.
// MaxPoints for a question is base + perOption*NumOptions.
type typeWeights struct {
	base      float64
	perOption float64
}

var questionTypeWeights = map[QuestionType]typeWeights{
	QuestionYesNo:          {2.0, 0.0},
	QuestionSingleChoice:   {2.0, 0.5},
	QuestionMultipleChoice: {3.0, 0.4},
	QuestionRating:         {2.5, 0.5},
}

// ParseQuestionType returns the QuestionType a heading starts with, if any.
func ParseQuestionType(heading string) (QuestionType, bool) {
	for _, qt := range []QuestionType{QuestionYesNo, QuestionSingleChoice, QuestionMultipleChoice, QuestionRating} {
		if len(heading) >= len(qt) && heading[:len(qt)] == string(qt) {
			return qt, true
		}
	}
	return "", false
}

// Question is one survey item with its scoring parameters. Immutable;
// equality is by ID only.
type Question struct {
	ID         int          `json:"id"`
	Type       QuestionType `json:"type"`
	NumOptions int          `json:"num_options"`
	MaxPoints  float64      `json:"max_points"`
}

// NewQuestion validates the type-specific parameters and derives MaxPoints.
// numOptions 0 means "not specified": yes/no questions are forced to 2
// options, rating questions default to 5, and choice questions fail since
// their option count cannot be inferred.
func NewQuestion(id int, qt QuestionType, numOptions int) (Question, error) {
	weights, ok := questionTypeWeights[qt]
	if !ok {
		return Question{}, eris.Errorf("model: unknown question type %q", qt)
	}

	switch qt {
	case QuestionYesNo:
		numOptions = 2
	case QuestionRating:
		if numOptions == 0 {
			numOptions = 5
		}
		if numOptions < 2 {
			return Question{}, eris.Errorf("model: rating question %d needs at least 2 options, got %d", id, numOptions)
		}
	default:
		if numOptions < 1 {
			return Question{}, eris.Errorf("model: %s question %d needs num_options", qt, id)
		}
	}

	return Question{
		ID:         id,
		Type:       qt,
		NumOptions: numOptions,
		MaxPoints:  weights.base + weights.perOption*float64(numOptions),
	}, nil
}

// Equal reports identity equality by ID.
func (q Question) Equal(other Question) bool {
	return q.ID == other.ID
}

// QuestionByID returns the question with the given id from the list.
func QuestionByID(questions []Question, id int) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
