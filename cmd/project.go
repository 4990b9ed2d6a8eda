package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage matchmaking projects",
	Long:  "Commands for registering, listing, and removing matchmaking projects and their data files.",
}

// -- project create --

var projectCreateCmd = &cobra.Command{
	Use:   "create <code>",
	Short: "Register a new project with its data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code := args[0]

		csvPath, _ := cmd.Flags().GetString("csv")
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		multiDelimiter, _ := cmd.Flags().GetString("multi-delimiter")

		if name == "" {
			name = code
		}
		if delimiter == "" {
			delimiter = cfg.CSV.Delimiter
		}
		if multiDelimiter == "" {
			multiDelimiter = cfg.CSV.MultiDelimiter
		}

		hash, size, err := fileInfo(csvPath)
		if err != nil {
			return err
		}

		project := model.Project{
			Code:           code,
			Name:           name,
			Description:    description,
			CSVPath:        csvPath,
			CSVSHA256:      hash,
			CSVSize:        size,
			Delimiter:      delimiter,
			MultiDelimiter: multiDelimiter,
			CreatedAt:      time.Now().UTC(),
		}

		// Parse before touching the store so a malformed file fails fast.
		svy, err := loadSurvey(&project)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.CreateProject(ctx, project); err != nil {
			return err
		}

		zap.L().Info("project created",
			zap.String("code", code),
			zap.Int("respondents", len(svy.Respondents)),
			zap.Int("questions", len(svy.Questions)),
			zap.Int("group_columns", len(svy.GroupCols)),
		)
		return nil
	},
}

// -- project list --

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		projects, err := st.ListProjects(ctx)
		if err != nil {
			return eris.Wrap(err, "project list")
		}

		if len(projects) == 0 {
			fmt.Fprintln(os.Stderr, "No projects found.")
			return nil
		}

		formatProjectList(os.Stdout, projects)
		return nil
	},
}

// -- project delete --

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete a project and its match results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		matches, err := st.CountMatches(ctx, code)
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm(fmt.Sprintf(
				"Delete project %q and its %d stored match results?", code, matches))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "Project not deleted.")
				return nil
			}
		}

		if err := st.DeleteProject(ctx, code); err != nil {
			return err
		}

		zap.L().Info("project deleted",
			zap.String("code", code),
			zap.Int("match_results", matches),
		)
		return nil
	},
}

// -- project reset-csv --

var projectResetCSVCmd = &cobra.Command{
	Use:   "reset-csv <code>",
	Short: "Point a project at a new or changed data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code := args[0]

		csvPath, _ := cmd.Flags().GetString("csv")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		project, err := st.GetProject(ctx, code)
		if err != nil {
			return err
		}
		if csvPath == "" {
			csvPath = project.CSVPath
		}

		hash, size, err := fileInfo(csvPath)
		if err != nil {
			return err
		}

		if err := st.UpdateProjectCSV(ctx, code, csvPath, hash, size); err != nil {
			return err
		}

		zap.L().Info("project data file reset",
			zap.String("code", code),
			zap.String("path", csvPath),
			zap.Int64("size", size),
		)
		return nil
	},
}

func formatProjectList(w io.Writer, projects []model.Project) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tDATA FILE\tSIZE\tCREATED")
	fmt.Fprintln(tw, "----\t----\t---------\t----\t-------")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			p.Code, p.Name, p.CSVPath, p.CSVSize,
			p.CreatedAt.Format(time.DateOnly),
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	projectCreateCmd.Flags().String("csv", "", "path to the survey data file (required)")
	projectCreateCmd.Flags().String("name", "", "human-readable project name (default: code)")
	projectCreateCmd.Flags().String("description", "", "project description")
	projectCreateCmd.Flags().String("delimiter", "", "cell delimiter (default from config)")
	projectCreateCmd.Flags().String("multi-delimiter", "", "multi-answer delimiter (default from config)")
	projectCreateCmd.MarkFlagRequired("csv") //nolint:errcheck

	projectDeleteCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	projectResetCSVCmd.Flags().String("csv", "", "path to the new data file (default: recorded path)")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectDeleteCmd, projectResetCSVCmd)
	rootCmd.AddCommand(projectCmd)
}
