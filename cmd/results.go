package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/groups"
	"github.com/weekintas/valentino-matchingas/internal/model"
	"github.com/weekintas/valentino-matchingas/internal/render"
)

var resultsCmd = &cobra.Command{
	Use:   "results <code>",
	Short: "Generate per-respondent result documents",
	Long:  "Loads the stored match matrix, resolves each respondent's display groups, and writes one result document per respondent and format.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code := args[0]

		formats, _ := cmd.Flags().GetStringSlice("formats")
		fileTypes := make([]model.ResultFileType, 0, len(formats))
		for _, f := range formats {
			ft, err := model.ParseResultFileType(f)
			if err != nil {
				return err
			}
			fileTypes = append(fileTypes, ft)
		}

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

		matrix, err := st.LoadMatrix(ctx, code, len(svy.Respondents))
		if err != nil {
			return err
		}

		groupConfig, err := loadGroupConfig(svy)
		if err != nil {
			return err
		}
		resolver := groups.NewResolver(svy.Respondents, matrix, groupConfig, matchingDefaults())

		renderer, err := newRenderer(cmd)
		if err != nil {
			return err
		}

		counts := make(map[model.ResultFileType]int, len(fileTypes))
		for _, respondent := range svy.Respondents {
			resolved, topMatch, err := resolver.Resolve(respondent)
			if err != nil {
				return err
			}
			for _, ft := range fileTypes {
				path, err := renderer.WriteFile(&respondent, resolved, topMatch, ft)
				if err != nil {
					return err
				}
				if path != "" {
					counts[ft]++
				}
			}
		}

		fields := []zap.Field{
			zap.String("code", code),
			zap.Int("respondents", len(svy.Respondents)),
		}
		for _, ft := range fileTypes {
			fields = append(fields, zap.Int(string(ft), counts[ft]))
		}
		zap.L().Info("result files generated", fields...)
		return nil
	},
}

// newRenderer builds a Renderer from output config with command-line
// overrides applied.
func newRenderer(cmd *cobra.Command) (*render.Renderer, error) {
	dir, _ := cmd.Flags().GetString("out-dir")
	if dir == "" {
		dir = cfg.Output.Dir
	}
	onExistsValue, _ := cmd.Flags().GetString("on-exists")
	if onExistsValue == "" {
		onExistsValue = cfg.Output.OnExists
	}
	onExists, err := render.ParseOnExists(onExistsValue)
	if err != nil {
		return nil, err
	}

	return &render.Renderer{
		Dir:              dir,
		SeparateByGroups: cfg.Output.SeparateByGroups,
		OnExists:         onExists,
		Confirm: func(path string) (bool, error) {
			return confirm(fmt.Sprintf("Result file %s already exists. Override?", path))
		},
		FooterEmail: cfg.Output.FooterEmail,
		FooterPDF:   cfg.Output.FooterPDF,
		PDFHeader:   cfg.Output.PDFHeader,
	}, nil
}

func init() {
	resultsCmd.Flags().StringSlice("formats", []string{"email"}, "result formats to generate (email, pdf)")
	resultsCmd.Flags().String("out-dir", "", "output directory (default from config)")
	resultsCmd.Flags().String("on-exists", "", "existing-file policy: override, skip, ask (default from config)")
	rootCmd.AddCommand(resultsCmd)
}
