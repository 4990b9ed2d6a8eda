package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/weekintas/valentino-matchingas/internal/matching"
	"github.com/weekintas/valentino-matchingas/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY,
	code                TEXT NOT NULL UNIQUE,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	csv_path            TEXT NOT NULL,
	csv_sha256          TEXT NOT NULL,
	csv_size            INTEGER NOT NULL,
	csv_delimiter       TEXT NOT NULL,
	csv_multi_delimiter TEXT NOT NULL,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS match_results (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	resp1_id   INTEGER NOT NULL,
	resp2_id   INTEGER NOT NULL,
	score      REAL NOT NULL,
	PRIMARY KEY (project_id, resp1_id, resp2_id),
	CHECK (resp1_id < resp2_id)
);

CREATE INDEX IF NOT EXISTS idx_match_results_project ON match_results(project_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, project model.Project) error {
	id := uuid.New().String()
	createdAt := project.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, code, name, description, csv_path, csv_sha256, csv_size, csv_delimiter, csv_multi_delimiter, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, project.Code, project.Name, project.Description,
		project.CSVPath, project.CSVSHA256, project.CSVSize,
		project.Delimiter, project.MultiDelimiter, createdAt,
	)
	return eris.Wrapf(err, "sqlite: insert project %s", project.Code)
}

func (s *SQLiteStore) GetProject(ctx context.Context, code string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT code, name, description, csv_path, csv_sha256, csv_size, csv_delimiter, csv_multi_delimiter, created_at
		 FROM projects WHERE code = ?`,
		code,
	)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, description, csv_path, csv_sha256, csv_size, csv_delimiter, csv_multi_delimiter, created_at
		 FROM projects ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE code = ?`, code)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete project %s", code)
	}
	return checkRowsAffected(res, "project", code)
}

func (s *SQLiteStore) UpdateProjectCSV(ctx context.Context, code, path, sha256 string, size int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET csv_path = ?, csv_sha256 = ?, csv_size = ? WHERE code = ?`,
		path, sha256, size, code,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update project csv %s", code)
	}
	return checkRowsAffected(res, "project", code)
}

// SaveMatrix replaces any previously stored results for the project in a
// single transaction, so readers never observe a half-written matrix.
func (s *SQLiteStore) SaveMatrix(ctx context.Context, code string, matrix *matching.Matrix) error {
	projectID, err := s.projectID(ctx, code)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save matrix")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM match_results WHERE project_id = ?`, projectID); err != nil {
		return eris.Wrapf(err, "sqlite: clear match results %s", code)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_results (project_id, resp1_id, resp2_id, score) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert match result")
	}
	defer stmt.Close()

	var insertErr error
	matrix.Pairs(func(a, b int, score float64) {
		if insertErr != nil {
			return
		}
		if _, err := stmt.ExecContext(ctx, projectID, a, b, score); err != nil {
			insertErr = eris.Wrapf(err, "sqlite: insert match result %d/%d", a, b)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit save matrix %s", code)
}

func (s *SQLiteStore) LoadMatrix(ctx context.Context, code string, numRespondents int) (*matching.Matrix, error) {
	projectID, err := s.projectID(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT resp1_id, resp2_id, score FROM match_results WHERE project_id = ?`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load matrix %s", code)
	}
	defer rows.Close()

	matrix := matching.NewMatrix(numRespondents)
	for rows.Next() {
		var a, b int
		var score float64
		if err := rows.Scan(&a, &b, &score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match result")
		}
		if err := matrix.Set(a, b, score); err != nil {
			return nil, eris.Wrap(err, "sqlite: set match result")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: load matrix iterate %s", code)
	}
	if err := verifyCompleteness(matrix, numRespondents); err != nil {
		return nil, err
	}
	return matrix, nil
}

func (s *SQLiteStore) CountMatches(ctx context.Context, code string) (int, error) {
	projectID, err := s.projectID(ctx, code)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM match_results WHERE project_id = ?`,
		projectID,
	).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count matches %s", code)
}

func (s *SQLiteStore) projectID(ctx context.Context, code string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE code = ?`, code).Scan(&id)
	if err == sql.ErrNoRows {
		return "", eris.Wrapf(ErrProjectNotFound, "sqlite: %s", code)
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: lookup project %s", code)
	}
	return id, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.Code, &p.Name, &p.Description,
		&p.CSVPath, &p.CSVSHA256, &p.CSVSize,
		&p.Delimiter, &p.MultiDelimiter, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan project")
	}
	return &p, nil
}
