package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type roleCounter interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type courseCounter interface {
	Count(ctx context.Context) (int, error)
}

type alertLister interface {
	List(ctx context.Context, filter repository.AlertFilter) ([]models.AlertDetail, error)
}

// DashboardSummary aggregates headline counters for the landing page.
type DashboardSummary struct {
	Students     int `json:"students"`
	Teachers     int `json:"teachers"`
	Counselors   int `json:"counselors"`
	Courses      int `json:"courses"`
	ActiveAlerts int `json:"active_alerts"`
}

// DashboardService serves cached headline counters.
type DashboardService struct {
	users   roleCounter
	courses courseCounter
	alerts  alertLister
	cache   dashboardCache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(users roleCounter, courses courseCounter, alerts alertLister, cache dashboardCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{users: users, courses: courses, alerts: alerts, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the counters, from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
		return &cached, nil
	} else if err != appErrors.ErrCacheMiss {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	summary := &DashboardSummary{}
	var err error
	if summary.Students, err = s.users.CountByRole(ctx, models.RoleStudent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if summary.Teachers, err = s.users.CountByRole(ctx, models.RoleTeacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	if summary.Counselors, err = s.users.CountByRole(ctx, models.RoleCounselor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count counselors")
	}
	if summary.Courses, err = s.courses.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	active, err := s.alerts.List(ctx, repository.AlertFilter{Status: models.AlertStatusActive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active alerts")
	}
	summary.ActiveAlerts = len(active)

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return summary, nil
}
