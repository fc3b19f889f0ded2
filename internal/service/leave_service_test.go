package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/storage"
)

type mockLeaveRepo struct {
	leaves  map[string]models.LeaveApplication
	created *models.LeaveApplication
	status  map[string]models.LeaveStatus
}

func (m *mockLeaveRepo) FindByID(ctx context.Context, id string) (*models.LeaveApplication, error) {
	if l, ok := m.leaves[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLeaveRepo) Create(ctx context.Context, leave *models.LeaveApplication) error {
	m.created = leave
	return nil
}

func (m *mockLeaveRepo) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveApplication, error) {
	return nil, nil
}

func (m *mockLeaveRepo) ListForCounselor(ctx context.Context, counselorID string, status models.LeaveStatus) ([]models.LeaveDetail, error) {
	return nil, nil
}

func (m *mockLeaveRepo) UpdateStatus(ctx context.Context, id string, status models.LeaveStatus, reviewerID string, rejectReason *string) error {
	if m.status == nil {
		m.status = make(map[string]models.LeaveStatus)
	}
	m.status[id] = status
	return nil
}

type mockLeaveStudentReader struct {
	students map[string]models.User
}

func (m *mockLeaveStudentReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.students[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

type mockLeaveClassReader struct {
	classes map[string]models.Class
}

func (m *mockLeaveClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func newLeaveService(t *testing.T, leaves *mockLeaveRepo, students *mockLeaveStudentReader, classes *mockLeaveClassReader) *LeaveService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewLeaveService(leaves, students, classes, files, nil, zap.NewNop())
}

func leaveFixtures(counselorID string) (*mockLeaveStudentReader, *mockLeaveClassReader) {
	students := &mockLeaveStudentReader{students: map[string]models.User{
		"stu-1": {ID: "stu-1", ClassID: strPtr("class-1")},
	}}
	classes := &mockLeaveClassReader{classes: map[string]models.Class{
		"class-1": {ID: "class-1", CounselorID: strPtr(counselorID)},
	}}
	return students, classes
}

func TestApplyLeave(t *testing.T) {
	leaves := &mockLeaveRepo{}
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, leaves, students, classes)

	leave, err := svc.Apply(context.Background(), "stu-1", ApplyLeaveRequest{
		LeaveType: "SICK",
		StartDate: "2026-09-03",
		EndDate:   "2026-09-05",
		Reason:    "flu",
	}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, leave.Status)
	assert.Equal(t, 3, leave.DurationDays(), "both endpoint dates count")
	assert.Nil(t, leave.Attachment)
}

func TestApplyLeaveAssignsClassCounselor(t *testing.T) {
	leaves := &mockLeaveRepo{}
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, leaves, students, classes)

	leave, err := svc.Apply(context.Background(), "stu-1", ApplyLeaveRequest{
		LeaveType: "PERSONAL",
		StartDate: "2026-09-03",
		EndDate:   "2026-09-03",
		Reason:    "errand",
	}, nil, "")
	require.NoError(t, err)
	require.NotNil(t, leave.ApproverID)
	assert.Equal(t, "coun-1", *leave.ApproverID)
}

func TestApplyLeaveWithoutClassLeavesApproverUnset(t *testing.T) {
	leaves := &mockLeaveRepo{}
	students := &mockLeaveStudentReader{students: map[string]models.User{
		"stu-2": {ID: "stu-2"},
	}}
	svc := newLeaveService(t, leaves, students, &mockLeaveClassReader{})

	leave, err := svc.Apply(context.Background(), "stu-2", ApplyLeaveRequest{
		LeaveType: "OTHER",
		StartDate: "2026-09-03",
		EndDate:   "2026-09-03",
		Reason:    "family matter",
	}, nil, "")
	require.NoError(t, err)
	assert.Nil(t, leave.ApproverID)
}

func TestApplyLeaveStoresAttachment(t *testing.T) {
	leaves := &mockLeaveRepo{}
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, leaves, students, classes)

	leave, err := svc.Apply(context.Background(), "stu-1", ApplyLeaveRequest{
		LeaveType: "SICK",
		StartDate: "2026-09-03",
		EndDate:   "2026-09-04",
		Reason:    "flu",
	}, strings.NewReader("doctor's note"), "note.pdf")
	require.NoError(t, err)
	require.NotNil(t, leave.Attachment)
	assert.True(t, strings.HasPrefix(*leave.Attachment, "leave_attachments/"))

	file, err := svc.files.Open(*leave.Attachment)
	require.NoError(t, err)
	file.Close()
}

func TestApplyLeaveSingleDay(t *testing.T) {
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, &mockLeaveRepo{}, students, classes)

	leave, err := svc.Apply(context.Background(), "stu-1", ApplyLeaveRequest{
		LeaveType: "PERSONAL",
		StartDate: "2026-09-03",
		EndDate:   "2026-09-03",
		Reason:    "errand",
	}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, leave.DurationDays())
}

func TestApplyLeaveReversedDates(t *testing.T) {
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, &mockLeaveRepo{}, students, classes)

	_, err := svc.Apply(context.Background(), "stu-1", ApplyLeaveRequest{
		LeaveType: "SICK",
		StartDate: "2026-09-05",
		EndDate:   "2026-09-03",
		Reason:    "flu",
	}, nil, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}

func TestReviewLeaveOnlyPending(t *testing.T) {
	leaves := &mockLeaveRepo{leaves: map[string]models.LeaveApplication{
		"lv-1": {ID: "lv-1", Status: models.LeaveStatusApproved},
		"lv-2": {ID: "lv-2", Status: models.LeaveStatusPending},
	}}
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, leaves, students, classes)

	err := svc.Review(context.Background(), "lv-1", "coun-1", ReviewLeaveRequest{Status: "APPROVED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)

	err = svc.Review(context.Background(), "lv-2", "coun-1", ReviewLeaveRequest{Status: "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, leaves.status["lv-2"])
}

func TestReviewLeaveAssignedReviewerOnly(t *testing.T) {
	leaves := &mockLeaveRepo{leaves: map[string]models.LeaveApplication{
		"lv-1": {ID: "lv-1", Status: models.LeaveStatusPending, ApproverID: strPtr("coun-1")},
	}}
	students, classes := leaveFixtures("coun-1")
	svc := newLeaveService(t, leaves, students, classes)

	err := svc.Review(context.Background(), "lv-1", "coun-2", ReviewLeaveRequest{Status: "APPROVED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Review(context.Background(), "lv-1", "coun-1", ReviewLeaveRequest{Status: "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, leaves.status["lv-1"])
}
