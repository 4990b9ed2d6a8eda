// Package store persists the project registry and computed match results.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/config"
	"github.com/weekintas/valentino-matchingas/internal/matching"
	"github.com/weekintas/valentino-matchingas/internal/model"
)

// ErrProjectNotFound marks lookups of unregistered project codes.
var ErrProjectNotFound = eris.New("store: project not found")

// Store defines the persistence interface for matchmaking projects.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, project model.Project) error
	GetProject(ctx context.Context, code string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	DeleteProject(ctx context.Context, code string) error
	UpdateProjectCSV(ctx context.Context, code, path, sha256 string, size int64) error

	// Match results
	SaveMatrix(ctx context.Context, code string, matrix *matching.Matrix) error
	LoadMatrix(ctx context.Context, code string, numRespondents int) (*matching.Matrix, error)
	CountMatches(ctx context.Context, code string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	}
	return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
}

// verifyCompleteness checks the n*(n-1)/2 pair-count invariant the group
// resolver relies on. numRespondents 0 skips the check.
func verifyCompleteness(matrix *matching.Matrix, numRespondents int) error {
	if numRespondents == 0 {
		return nil
	}
	expected := numRespondents * (numRespondents - 1) / 2
	if matrix.Len() != expected {
		return eris.Errorf("store: loaded %d match rows, expected %d for %d respondents",
			matrix.Len(), expected, numRespondents)
	}
	return nil
}
