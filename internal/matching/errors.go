package matching

import "github.com/rotisserie/eris"

// Sentinel errors for data-integrity failures. All of them abort the batch:
// a partially scored matrix would break the completeness invariant the
// group resolver relies on.
var (
	// ErrMissingResponse marks a question answered by one respondent of a
	// pair but not the other.
	ErrMissingResponse = eris.New("matching: missing response")

	// ErrUnknownQuestion marks a response keyed by a question id that is not
	// in the supplied question list.
	ErrUnknownQuestion = eris.New("matching: unknown question")

	// ErrNotFound marks a matrix lookup for a pair that was never scored.
	ErrNotFound = eris.New("matching: pair not found")

	// ErrInvalidConfig marks question parameters the scorer cannot work
	// with, e.g. a rating question with a single option.
	ErrInvalidConfig = eris.New("matching: invalid configuration")
)
