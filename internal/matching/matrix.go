package matching

import "github.com/rotisserie/eris"

// pairKey is the canonical key for an unordered respondent pair: the lower
// id always comes first, so (a,b) and (b,a) address the same cell.
type pairKey struct {
	lo, hi int
}

func keyFor(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Matrix stores the compatibility score of every unordered respondent pair
// exactly once. Build-phase writers own disjoint keys; after the build the
// matrix is read-only.
type Matrix struct {
	scores map[pairKey]float64
}

// NewMatrix returns an empty matrix sized for n respondents.
func NewMatrix(n int) *Matrix {
	return &Matrix{scores: make(map[pairKey]float64, n*(n-1)/2)}
}

// Set stores a score symmetrically. Self-pairs are rejected since the
// matrix never holds them.
func (m *Matrix) Set(a, b int, score float64) error {
	if a == b {
		return eris.Errorf("matching: cannot store self-pair for respondent %d", a)
	}
	m.scores[keyFor(a, b)] = score
	return nil
}

// Get returns the stored score for a pair. A stored 0.0 is a present value;
// absence is reported only through ErrNotFound.
func (m *Matrix) Get(a, b int) (float64, error) {
	score, ok := m.scores[keyFor(a, b)]
	if !ok {
		return 0, eris.Wrapf(ErrNotFound, "respondents %d and %d", a, b)
	}
	return score, nil
}

// ScoresFor returns every stored score involving the given respondent,
// keyed by the other respondent's id.
func (m *Matrix) ScoresFor(id int) map[int]float64 {
	out := make(map[int]float64)
	for key, score := range m.scores {
		switch id {
		case key.lo:
			out[key.hi] = score
		case key.hi:
			out[key.lo] = score
		}
	}
	return out
}

// Len returns the number of stored pairs.
func (m *Matrix) Len() int {
	return len(m.scores)
}

// Pairs calls fn for every stored pair with lo < hi. Iteration order is
// unspecified.
func (m *Matrix) Pairs(fn func(a, b int, score float64)) {
	for key, score := range m.scores {
		fn(key.lo, key.hi, score)
	}
}
