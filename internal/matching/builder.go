package matching

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

// BuildMatrix scores every unordered respondent pair exactly once and
// returns the completed matrix. Pairs are enumerated up front and chunked
// across workers; each worker writes disjoint slots of a shared slice, so
// the workers never contend and the result is deterministic.
func BuildMatrix(ctx context.Context, respondents []model.Respondent, questions []model.Question, workers int) (*Matrix, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type pair struct {
		a, b int // indexes into respondents
	}

	n := len(respondents)
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pair{a: i, b: j})
		}
	}

	zap.L().Info("matching: building matrix",
		zap.Int("respondents", n),
		zap.Int("pairs", len(pairs)),
		zap.Int("workers", workers),
	)

	scores := make([]float64, len(pairs))

	g, gCtx := errgroup.WithContext(ctx)
	chunk := (len(pairs) + workers - 1) / workers
	for start := 0; start < len(pairs); start += chunk {
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				p := pairs[i]
				score, err := Score(respondents[p.a], respondents[p.b], questions)
				if err != nil {
					return err
				}
				scores[i] = score
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matrix := NewMatrix(n)
	for i, p := range pairs {
		if err := matrix.Set(respondents[p.a].ID, respondents[p.b].ID, scores[i]); err != nil {
			return nil, err
		}
	}

	zap.L().Info("matching: matrix complete", zap.Int("pairs", matrix.Len()))
	return matrix, nil
}
