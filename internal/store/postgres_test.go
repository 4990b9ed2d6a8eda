package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekintas/valentino-matchingas/internal/matching"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func projectColumns() []string {
	return []string{
		"code", "name", "description", "csv_path", "csv_sha256", "csv_size",
		"csv_delimiter", "csv_multi_delimiter", "created_at",
	}
}

func TestPostgresStore_CreateProject(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs(pgxmock.AnyArg(), "valentino-2026", "Valentino diena 2026", "Gimnazijos apklausa",
			"data/valentino-2026.csv", "deadbeef", int64(1024), ",", ";", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.CreateProject(context.Background(), testProject("valentino-2026"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProject(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	createdAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM projects WHERE code = \$1`).
		WithArgs("valentino-2026").
		WillReturnRows(pgxmock.NewRows(projectColumns()).
			AddRow("valentino-2026", "Valentino diena", "Apklausa",
				"data/survey.csv", "deadbeef", int64(1024), ",", ";", createdAt))

	got, err := s.GetProject(context.Background(), "valentino-2026")
	require.NoError(t, err)
	assert.Equal(t, "Valentino diena", got.Name)
	assert.Equal(t, int64(1024), got.CSVSize)
	assert.True(t, createdAt.Equal(got.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProject_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM projects WHERE code = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProject(context.Background(), "nonexistent")
	assert.True(t, eris.Is(err, ErrProjectNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProjects(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM projects ORDER BY created_at`).
		WillReturnRows(pgxmock.NewRows(projectColumns()).
			AddRow("first", "First", "", "a.csv", "aa", int64(1), ",", ";", createdAt).
			AddRow("second", "Second", "", "b.csv", "bb", int64(2), ",", ";", createdAt))

	projects, err := s.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "first", projects[0].Code)
	assert.Equal(t, "second", projects[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteProject_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM projects WHERE code = \$1`).
		WithArgs("nonexistent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteProject(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateProjectCSV(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE projects SET csv_path = \$1`).
		WithArgs("data/new.csv", "cafebabe", int64(2048), "valentino-2026").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateProjectCSV(context.Background(), "valentino-2026", "data/new.csv", "cafebabe", 2048)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveMatrix(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	matrix := matching.NewMatrix(2)
	require.NoError(t, matrix.Set(0, 1, 87.5))

	mock.ExpectQuery(`SELECT id FROM projects WHERE code = \$1`).
		WithArgs("valentino-2026").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("project-uuid"))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM match_results WHERE project_id = \$1`).
		WithArgs("project-uuid").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO match_results`).
		WithArgs("project-uuid", 0, 1, 87.5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveMatrix(context.Background(), "valentino-2026", matrix)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveMatrix_ProjectMissing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id FROM projects WHERE code = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	err := s.SaveMatrix(context.Background(), "nonexistent", matching.NewMatrix(2))
	assert.True(t, eris.Is(err, ErrProjectNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadMatrix(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id FROM projects WHERE code = \$1`).
		WithArgs("valentino-2026").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("project-uuid"))
	mock.ExpectQuery(`SELECT resp1_id, resp2_id, score FROM match_results`).
		WithArgs("project-uuid").
		WillReturnRows(pgxmock.NewRows([]string{"resp1_id", "resp2_id", "score"}).
			AddRow(0, 1, 87.5).
			AddRow(0, 2, 40.0).
			AddRow(1, 2, 0.0))

	matrix, err := s.LoadMatrix(context.Background(), "valentino-2026", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, matrix.Len())

	score, err := matrix.Get(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 40.0, score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadMatrix_Incomplete(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id FROM projects WHERE code = \$1`).
		WithArgs("valentino-2026").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("project-uuid"))
	mock.ExpectQuery(`SELECT resp1_id, resp2_id, score FROM match_results`).
		WithArgs("project-uuid").
		WillReturnRows(pgxmock.NewRows([]string{"resp1_id", "resp2_id", "score"}).
			AddRow(0, 1, 87.5))

	_, err := s.LoadMatrix(context.Background(), "valentino-2026", 3)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountMatches(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id FROM projects WHERE code = \$1`).
		WithArgs("valentino-2026").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("project-uuid"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM match_results`).
		WithArgs("project-uuid").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.CountMatches(context.Background(), "valentino-2026")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
