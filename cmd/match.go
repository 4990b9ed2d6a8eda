package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match <code>",
	Short: "Compute and store the match matrix for a project",
	Long:  "Parses the project's data file, scores every respondent pair, and stores the symmetric compatibility matrix.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		project, err := st.GetProject(ctx, code)
		if err != nil {
			return err
		}

		svy, err := loadSurvey(project)
		if err != nil {
			return err
		}

		existing, err := st.CountMatches(ctx, code)
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if existing > 0 && !yes {
			ok, err := confirm(fmt.Sprintf(
				"There are already %d stored match results. Override all of them?", existing))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "Match results not saved.")
				return nil
			}
		}

		workers, _ := cmd.Flags().GetInt("workers")
		if workers == 0 {
			workers = cfg.Matching.Workers
		}

		matrix, err := matching.BuildMatrix(ctx, svy.Respondents, svy.Questions, workers)
		if err != nil {
			return err
		}

		if err := st.SaveMatrix(ctx, code, matrix); err != nil {
			return err
		}

		top, low, avg := matrixStats(matrix)
		zap.L().Info("match matrix stored",
			zap.String("code", code),
			zap.Int("respondents", len(svy.Respondents)),
			zap.Int("pairs", matrix.Len()),
			zap.Float64("top_score", top),
			zap.Float64("lowest_score", low),
			zap.Float64("average_score", avg),
		)
		return nil
	},
}

func matrixStats(matrix *matching.Matrix) (top, low, avg float64) {
	n := matrix.Len()
	if n == 0 {
		return 0, 0, 0
	}
	first := true
	var sum float64
	matrix.Pairs(func(_, _ int, score float64) {
		if first {
			top, low = score, score
			first = false
		}
		if score > top {
			top = score
		}
		if score < low {
			low = score
		}
		sum += score
	})
	return top, low, sum / float64(n)
}

func init() {
	matchCmd.Flags().Int("workers", 0, "concurrent scoring workers (default from config)")
	matchCmd.Flags().Bool("yes", false, "override stored results without asking")
	rootCmd.AddCommand(matchCmd)
}
