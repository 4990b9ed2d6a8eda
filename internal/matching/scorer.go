// Package matching implements the pairwise compatibility engine: a pure
// per-question scorer, the symmetric match matrix, and the all-pairs builder.
package matching

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

// Score computes the compatibility between two respondents as a percentage
// in [0,100]. For every question both answered it accumulates a per-question
// point value in [0, MaxPoints] and normalizes by the total possible points.
// Pure and safe to call concurrently.
func Score(a, b model.Respondent, questions []model.Question) (float64, error) {
	if len(a.Responses) != len(b.Responses) {
		return 0, eris.Wrapf(ErrMissingResponse,
			"respondents %d and %d answered a different number of questions", a.ID, b.ID)
	}

	var points, maxPoints float64

	// Summation order is fixed so repeated builds produce bit-identical
	// scores.
	questionIDs := make([]int, 0, len(a.Responses))
	for id := range a.Responses {
		questionIDs = append(questionIDs, id)
	}
	sort.Ints(questionIDs)

	for _, questionID := range questionIDs {
		answerA := a.Responses[questionID]
		answerB, ok := b.Responses[questionID]
		if !ok {
			return 0, eris.Wrapf(ErrMissingResponse,
				"question %d answered by respondent %d but not %d", questionID, a.ID, b.ID)
		}

		question, ok := model.QuestionByID(questions, questionID)
		if !ok {
			return 0, eris.Wrapf(ErrUnknownQuestion,
				"respondent %d answered question %d", a.ID, questionID)
		}

		p, err := questionPoints(answerA, answerB, question)
		if err != nil {
			return 0, err
		}
		points += p
		maxPoints += question.MaxPoints
	}

	// No questions scored: degenerate, not an error.
	if maxPoints == 0 {
		return 0, nil
	}

	return points / maxPoints * 100, nil
}

// questionPoints applies the type-specific scoring rule to one answer pair.
func questionPoints(a, b model.Answer, q model.Question) (float64, error) {
	switch q.Type {
	case model.QuestionYesNo, model.QuestionSingleChoice:
		return discretePoints(a, b, q), nil
	case model.QuestionMultipleChoice:
		return jaccardPoints(a, b, q), nil
	case model.QuestionRating:
		return ratingPoints(a, b, q)
	}
	return 0, eris.Wrapf(ErrInvalidConfig, "question %d has type %q", q.ID, q.Type)
}

// discretePoints awards full points on an exact answer match, zero otherwise.
func discretePoints(a, b model.Answer, q model.Question) float64 {
	if a.Text == b.Text {
		return q.MaxPoints
	}
	return 0
}

// jaccardPoints weights points by |A∩B| / |A∪B| over the chosen option sets.
// When both respondents chose nothing the sets agree perfectly, so the pair
// gets full points; this keeps "identical answers everywhere" at exactly 100.
func jaccardPoints(a, b model.Answer, q model.Question) float64 {
	union := len(a.Options)
	var intersection int
	for option := range b.Options {
		if _, ok := a.Options[option]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return q.MaxPoints
	}
	return float64(intersection) / float64(union) * q.MaxPoints
}

// ratingPoints scales points linearly with the distance between the two
// ratings: zero distance gets MaxPoints, the maximum possible distance
// (NumOptions-1) gets zero.
func ratingPoints(a, b model.Answer, q model.Question) (float64, error) {
	if q.NumOptions <= 1 {
		return 0, eris.Wrapf(ErrInvalidConfig,
			"rating question %d has %d options", q.ID, q.NumOptions)
	}

	difference := a.Rating - b.Rating
	if difference < 0 {
		difference = -difference
	}
	return float64(q.NumOptions-difference-1) / float64(q.NumOptions-1) * q.MaxPoints, nil
}
