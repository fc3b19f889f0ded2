package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-api/internal/models"
)

func newSelectionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSelectionRepositoryExists(t *testing.T) {
	db, mock, cleanup := newSelectionRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM selected_courses WHERE student_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("stu-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryExistsNoRows(t *testing.T) {
	db, mock, cleanup := newSelectionRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM selected_courses")).
		WithArgs("stu-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSelectionRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newSelectionRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec("INSERT INTO selected_courses").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.CourseSelection{
		StudentID: "stu-1",
		CourseID:  "course-1",
	})
	require.ErrorIs(t, err, ErrDuplicateSelection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositorySumCredits(t *testing.T) {
	db, mock, cleanup := newSelectionRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credit), 0)")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(28))

	total, err := repo.SumCredits(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, 28, total)
}

func TestSelectionRepositoryDeleteReportsRows(t *testing.T) {
	db, mock, cleanup := newSelectionRepoMock(t)
	defer cleanup()
	repo := NewSelectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM selected_courses WHERE student_id = $1 AND course_id = $2")).
		WithArgs("stu-1", "course-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.Zero(t, affected)
}
