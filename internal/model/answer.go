package model

import (
	"sort"
	"strconv"
	"strings"
)

// AnswerKind tags the runtime shape of an answer value.
type AnswerKind int

const (
	AnswerText AnswerKind = iota
	AnswerRating
	AnswerOptions
)

// Answer is a single response to a question. The populated field depends on
// the question type: Text for yes/no and single-choice, Rating for rating,
// Options for multiple-choice.
type Answer struct {
	Kind    AnswerKind          `json:"kind"`
	Text    string              `json:"text,omitempty"`
	Rating  int                 `json:"rating,omitempty"`
	Options map[string]struct{} `json:"-"`
}

// TextAnswer builds a yes/no or single-choice answer.
func TextAnswer(value string) Answer {
	return Answer{Kind: AnswerText, Text: value}
}

// RatingAnswer builds a rating answer.
func RatingAnswer(value int) Answer {
	return Answer{Kind: AnswerRating, Rating: value}
}

// OptionsAnswer builds a multiple-choice answer from the chosen option labels.
func OptionsAnswer(options ...string) Answer {
	set := make(map[string]struct{}, len(options))
	for _, o := range options {
		set[o] = struct{}{}
	}
	return Answer{Kind: AnswerOptions, Options: set}
}

// String renders the answer for logging and serialization.
func (a Answer) String() string {
	switch a.Kind {
	case AnswerRating:
		return strconv.Itoa(a.Rating)
	case AnswerOptions:
		labels := make([]string, 0, len(a.Options))
		for o := range a.Options {
			labels = append(labels, o)
		}
		sort.Strings(labels)
		return strings.Join(labels, ";")
	default:
		return a.Text
	}
}
