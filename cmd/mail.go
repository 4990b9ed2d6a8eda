package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/groups"
	"github.com/weekintas/valentino-matchingas/internal/model"
	"github.com/weekintas/valentino-matchingas/pkg/zeptomail"
)

var mailCmd = &cobra.Command{
	Use:   "mail <code> <respondent-id> <to-address>",
	Short: "Email a respondent their results",
	Long:  "Renders the respondent's email result document and sends it through ZeptoMail.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code := args[0]
		toAddress := args[2]

		respondentID, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Wrapf(err, "invalid respondent id %q", args[1])
		}

		if cfg.Email.Token == "" {
			return eris.New("email token is not configured")
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
		if respondentID < 0 || respondentID >= len(svy.Respondents) {
			return eris.Errorf("respondent %d not found in project %s", respondentID, code)
		}
		respondent := svy.Respondents[respondentID]

		matrix, err := st.LoadMatrix(ctx, code, len(svy.Respondents))
		if err != nil {
			return err
		}

		groupConfig, err := loadGroupConfig(svy)
		if err != nil {
			return err
		}
		resolver := groups.NewResolver(svy.Respondents, matrix, groupConfig, matchingDefaults())

		resolved, topMatch, err := resolver.Resolve(respondent)
		if err != nil {
			return err
		}

		renderer, err := newRenderer(cmd)
		if err != nil {
			return err
		}
		body, err := renderer.Render(&respondent, resolved, topMatch, model.ResultFileEmail)
		if err != nil {
			return err
		}

		subject, _ := cmd.Flags().GetString("subject")
		if subject == "" {
			subject = cfg.Email.Subject
		}

		attachPaths, _ := cmd.Flags().GetStringSlice("attach")
		attachments := make([]zeptomail.Attachment, 0, len(attachPaths))
		for _, path := range attachPaths {
			att, err := zeptomail.AttachmentFromFile(path, "")
			if err != nil {
				return err
			}
			attachments = append(attachments, att)
		}

		client := zeptomail.NewClient(cfg.Email.Token,
			zeptomail.WithBaseURL(cfg.Email.BaseURL),
			zeptomail.WithRateLimit(cfg.Email.RatePerSecond),
		)

		resp, err := client.Send(ctx, zeptomail.Email{
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			ToAddress:   toAddress,
			Subject:     subject,
			HTMLBody:    body,
			Attachments: attachments,
		})
		if err != nil {
			return err
		}

		zap.L().Info("result email sent",
			zap.String("code", code),
			zap.Int("respondent", respondentID),
			zap.String("to", toAddress),
			zap.String("request_id", resp.RequestID),
		)
		return nil
	},
}

func init() {
	mailCmd.Flags().String("subject", "", "email subject (default from config)")
	mailCmd.Flags().StringSlice("attach", nil, "files to attach")
	rootCmd.AddCommand(mailCmd)
}
