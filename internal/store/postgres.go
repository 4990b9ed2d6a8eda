package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/matching"
	"github.com/weekintas/valentino-matchingas/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool through the same interface.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	code                TEXT NOT NULL UNIQUE,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	csv_path            TEXT NOT NULL,
	csv_sha256          TEXT NOT NULL,
	csv_size            BIGINT NOT NULL,
	csv_delimiter       TEXT NOT NULL,
	csv_multi_delimiter TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_results (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	resp1_id   INTEGER NOT NULL,
	resp2_id   INTEGER NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (project_id, resp1_id, resp2_id),
	CHECK (resp1_id < resp2_id)
);

CREATE INDEX IF NOT EXISTS idx_match_results_project ON match_results(project_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project model.Project) error {
	id := uuid.New().String()
	createdAt := project.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, code, name, description, csv_path, csv_sha256, csv_size, csv_delimiter, csv_multi_delimiter, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, project.Code, project.Name, project.Description,
		project.CSVPath, project.CSVSHA256, project.CSVSize,
		project.Delimiter, project.MultiDelimiter, createdAt,
	)
	return eris.Wrapf(err, "postgres: insert project %s", project.Code)
}

func (s *PostgresStore) GetProject(ctx context.Context, code string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT code, name, description, csv_path, csv_sha256, csv_size, csv_delimiter, csv_multi_delimiter, created_at
		 FROM projects WHERE code = $1`,
		code,
	)

	var p model.Project
	err := row.Scan(&p.Code, &p.Name, &p.Description,
		&p.CSVPath, &p.CSVSHA256, &p.CSVSize,
		&p.Delimiter, &p.MultiDelimiter, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan project")
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, name, description, csv_path, csv_sha256, csv_size, csv_delimiter, csv_multi_delimiter, created_at
		 FROM projects ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.Code, &p.Name, &p.Description,
			&p.CSVPath, &p.CSVSHA256, &p.CSVSize,
			&p.Delimiter, &p.MultiDelimiter, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) DeleteProject(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE code = $1`, code)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete project %s", code)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", code)
	}
	return nil
}

func (s *PostgresStore) UpdateProjectCSV(ctx context.Context, code, path, sha256 string, size int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET csv_path = $1, csv_sha256 = $2, csv_size = $3 WHERE code = $4`,
		path, sha256, size, code,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update project csv %s", code)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", code)
	}
	return nil
}

func (s *PostgresStore) SaveMatrix(ctx context.Context, code string, matrix *matching.Matrix) error {
	projectID, err := s.lookupProjectID(ctx, code)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save matrix")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM match_results WHERE project_id = $1`, projectID); err != nil {
		return eris.Wrapf(err, "postgres: clear match results %s", code)
	}

	var insertErr error
	matrix.Pairs(func(a, b int, score float64) {
		if insertErr != nil {
			return
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO match_results (project_id, resp1_id, resp2_id, score) VALUES ($1, $2, $3, $4)`,
			projectID, a, b, score,
		)
		if err != nil {
			insertErr = eris.Wrapf(err, "postgres: insert match result %d/%d", a, b)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit save matrix %s", code)
}

func (s *PostgresStore) LoadMatrix(ctx context.Context, code string, numRespondents int) (*matching.Matrix, error) {
	projectID, err := s.lookupProjectID(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT resp1_id, resp2_id, score FROM match_results WHERE project_id = $1`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load matrix %s", code)
	}
	defer rows.Close()

	matrix := matching.NewMatrix(numRespondents)
	for rows.Next() {
		var a, b int
		var score float64
		if err := rows.Scan(&a, &b, &score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match result")
		}
		if err := matrix.Set(a, b, score); err != nil {
			return nil, eris.Wrap(err, "postgres: set match result")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: load matrix iterate %s", code)
	}
	if err := verifyCompleteness(matrix, numRespondents); err != nil {
		return nil, err
	}
	return matrix, nil
}

func (s *PostgresStore) CountMatches(ctx context.Context, code string) (int, error) {
	projectID, err := s.lookupProjectID(ctx, code)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM match_results WHERE project_id = $1`,
		projectID,
	).Scan(&n)
	return n, eris.Wrapf(err, "postgres: count matches %s", code)
}

func (s *PostgresStore) lookupProjectID(ctx context.Context, code string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM projects WHERE code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", eris.Wrapf(ErrProjectNotFound, "postgres: %s", code)
	}
	if err != nil {
		return "", eris.Wrapf(err, "postgres: lookup project %s", code)
	}
	return id, nil
}
