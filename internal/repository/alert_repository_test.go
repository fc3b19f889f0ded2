package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-api/internal/models"
)

func newAlertRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAlertRepositoryFindByIDDecodesCourses(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "student_id", "counselor_id", "academic_year", "semester", "level", "failed_count",
		"failed_courses", "status", "resolved_by", "resolved_at", "created_at",
	}).AddRow("al-1", "stu-1", "coun-1", "2025-2026", "1", models.AlertLevelFirst, 3,
		`["Calculus","Physics","Chemistry"]`, models.AlertStatusActive, nil, nil, time.Now())
	mock.ExpectQuery("SELECT .+ FROM academic_alerts WHERE id = \\$1").
		WithArgs("al-1").
		WillReturnRows(rows)

	alert, err := repo.FindByID(context.Background(), "al-1")
	require.NoError(t, err)
	require.Equal(t, models.FailedCourses{"Calculus", "Physics", "Chemistry"}, alert.FailedCourses)
}

func TestAlertRepositoryFindByIDLegacyValue(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "student_id", "counselor_id", "academic_year", "semester", "level", "failed_count",
		"failed_courses", "status", "resolved_by", "resolved_at", "created_at",
	}).AddRow("al-2", "stu-2", "coun-1", "2025-2026", "1", models.AlertLevelSecond, 2,
		"Calculus", models.AlertStatusActive, nil, nil, time.Now())
	mock.ExpectQuery("SELECT .+ FROM academic_alerts WHERE id = \\$1").
		WithArgs("al-2").
		WillReturnRows(rows)

	alert, err := repo.FindByID(context.Background(), "al-2")
	require.NoError(t, err)
	require.Equal(t, models.FailedCourses{"Calculus"}, alert.FailedCourses)
}

func TestAlertRepositoryExistsActiveForTerm(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectQuery("SELECT 1 FROM academic_alerts").
		WithArgs("stu-1", "2025-2026", "1", models.AlertStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsActiveForTerm(context.Background(), "stu-1", "2025-2026", "1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM academic_alerts").
		WithArgs("stu-2", "2025-2026", "1", models.AlertStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsActiveForTerm(context.Background(), "stu-2", "2025-2026", "1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	resolvedBy := "coun-1"
	resolvedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_alerts SET status = $2, resolved_by = $3, resolved_at = $4 WHERE id = $1")).
		WithArgs("al-1", models.AlertStatusResolved, &resolvedBy, &resolvedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "al-1", models.AlertStatusResolved, &resolvedBy, &resolvedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
