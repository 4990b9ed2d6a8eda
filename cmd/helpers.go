package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/groups"
	"github.com/weekintas/valentino-matchingas/internal/model"
	"github.com/weekintas/valentino-matchingas/internal/store"
	"github.com/weekintas/valentino-matchingas/internal/survey"
)

// initStore opens the configured store and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// loadSurvey parses the project's data file with the delimiters recorded at
// project creation.
func loadSurvey(project *model.Project) (*survey.Survey, error) {
	return survey.ParseFile(project.CSVPath, survey.Options{
		Delimiter:      project.Delimiter,
		MultiDelimiter: project.MultiDelimiter,
	})
}

// loadGroupConfig reads the group configuration file when one exists,
// otherwise synthesizes groups from the data file's GROUP headings.
func loadGroupConfig(svy *survey.Survey) (*groups.Config, error) {
	path := cfg.Groups.File
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return groups.LoadConfig(path, groups.NewRegistry())
		} else if !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "stat groups file %s", path)
		}
	}
	return synthesizeGroups(svy.GroupCols)
}

// synthesizeGroups builds a minimal group configuration from GROUP column
// headings: one group per column in heading order, plus the whole-pool group
// listed last.
func synthesizeGroups(cols []survey.GroupColumn) (*groups.Config, error) {
	list := make([]groups.Group, 0, len(cols)+1)
	for i, col := range cols {
		g := groups.Group{Code: col.Key, Order: i}
		if col.Title != "" {
			g.Title = groups.Const(col.Title)
		}
		if col.MaxResults != nil {
			g.MaxResults = groups.Const(col.MaxResults)
		}
		list = append(list, g)
	}
	list = append(list, groups.Group{
		Code:             groups.AllMatchesCode,
		Title:            groups.Const("Visi dalyviai"),
		VisibleWhenEmpty: true,
		Order:            len(cols),
	})
	return groups.NewConfig(list)
}

// matchingDefaults converts configured formatting defaults into resolver
// defaults.
func matchingDefaults() groups.Defaults {
	maxResults := cfg.Matching.DefaultMaxResults
	precision := cfg.Matching.DefaultPrecision
	return groups.Defaults{
		MaxResults: &maxResults,
		Precision:  &precision,
	}
}

// confirm asks a yes/no question on the terminal.
func confirm(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{"Yes", "No"},
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return false, eris.Wrap(err, "confirm prompt")
	}
	return choice == "Yes", nil
}

// fileInfo returns the sha256 hex digest and byte size of a file.
func fileInfo(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, eris.Wrapf(err, "open data file %s", path)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, eris.Wrapf(err, "hash data file %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
