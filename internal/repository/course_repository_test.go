package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseListRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "name", "teacher_id", "class_id", "credit", "grades_saved",
		"grades_submitted", "grades_submitted_at", "created_at", "teacher_name",
	}).AddRow("course-1", "MATH101", "Calculus", "teacher-1", "class-1", 3, false,
		false, nil, time.Now(), "Dr. Li")
}

func TestCourseRepositoryListExcludesSelected(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(`FROM courses c LEFT JOIN users u ON u\.id = c\.teacher_id WHERE NOT EXISTS \(SELECT 1 FROM selected_courses sc WHERE sc\.course_id = c\.id AND sc\.student_id = \$1\)`).
		WithArgs("stu-1").
		WillReturnRows(courseListRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses c .+ WHERE NOT EXISTS`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), CourseFilter{ExcludeSelectedBy: "stu-1"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(`FROM courses c LEFT JOIN users u ON u\.id = c\.teacher_id ORDER BY c\.code`).
		WillReturnRows(courseListRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses c`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.List(context.Background(), CourseFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
