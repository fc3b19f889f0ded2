package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushq/campus-api/api/swagger"
	"github.com/campushq/campus-api/internal/handler"
	"github.com/campushq/campus-api/internal/middleware"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	"github.com/campushq/campus-api/internal/service"
	"github.com/campushq/campus-api/pkg/cache"
	"github.com/campushq/campus-api/pkg/config"
	"github.com/campushq/campus-api/pkg/database"
	"github.com/campushq/campus-api/pkg/jobs"
	"github.com/campushq/campus-api/pkg/logger"
	corsmiddleware "github.com/campushq/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/campus-api/pkg/middleware/requestid"
	"github.com/campushq/campus-api/pkg/storage"
)

// @title Campus API
// @version 1.0.0
// @description Academic administration service for students, teachers and counselors
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	users := repository.NewUserRepository(db)
	classes := repository.NewClassRepository(db)
	courses := repository.NewCourseRepository(db)
	schedules := repository.NewScheduleRepository(db)
	selections := repository.NewSelectionRepository(db)
	grades := repository.NewGradeRepository(db)
	classrooms := repository.NewClassroomRepository(db)
	bookings := repository.NewBookingRepository(db)
	leaves := repository.NewLeaveRepository(db)
	alerts := repository.NewAlertRepository(db)
	announcements := repository.NewAnnouncementRepository(db)
	materials := repository.NewMaterialRepository(db)
	exams := repository.NewExamRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(users, cfg.JWT, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(selections, courses, schedules, cfg.Enrollment.CreditLimit, validate, logr)
	courseSvc := service.NewCourseService(courses, selections, validate, logr)
	scheduleSvc := service.NewScheduleService(schedules, exams, courses, validate, logr)
	gradeSvc := service.NewGradeService(grades, courses, selections, announcements, validate, logr)
	bookingSvc := service.NewBookingService(bookings, classrooms, validate, logr)
	leaveSvc := service.NewLeaveService(leaves, users, classes, files, validate, logr)
	alertSvc := service.NewAlertService(alerts, grades, service.AlertThresholds{
		FirstLevelMin:  cfg.Alerts.FirstLevelMin,
		SecondLevelMin: cfg.Alerts.SecondLevelMin,
	}, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcements, courses, validate, logr)
	materialSvc := service.NewMaterialService(materials, courses, files, cfg.Uploads, validate, logr)
	dashboardSvc := service.NewDashboardService(users, courses, alerts, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(grades, bookings, classrooms, courses, alerts, schedules, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc, scheduleSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/profile", authHandler.Profile)
		authed.PUT("/auth/password", authHandler.ChangePassword)

		authed.GET("/courses", courseHandler.List)
		authed.GET("/courses/:id", courseHandler.Detail)
		authed.GET("/courses/:id/announcements", announcementHandler.ListByCourse)
		authed.GET("/courses/:id/materials", materialHandler.ListByCourse)
		authed.GET("/classrooms", bookingHandler.Classrooms)
		authed.GET("/bookings", bookingHandler.List)
		authed.POST("/bookings", bookingHandler.Submit)
		authed.DELETE("/bookings/:id", bookingHandler.Cancel)
		authed.GET("/bookings/:id/voucher", exportHandler.BookingVoucher)
		authed.GET("/materials/:id/download", materialHandler.Download)
		authed.POST("/materials/:id/view", materialHandler.View)
	}

	students := authed.Group("")
	students.Use(middleware.RequireRoles(models.RoleStudent))
	{
		students.POST("/selections", enrollmentHandler.Select)
		students.GET("/selections", enrollmentHandler.List)
		students.DELETE("/selections/:courseId", enrollmentHandler.Drop)
		students.GET("/schedules/me", scheduleHandler.MyTimetable)
		students.GET("/schedules/me/export", exportHandler.Timetable)
		students.GET("/exams/me", scheduleHandler.MyExams)
		students.GET("/exams/me/export", exportHandler.ExamsICal)
		students.GET("/grades/me", gradeHandler.MySummary)
		students.GET("/grades/me/transcript", exportHandler.Transcript)
		students.POST("/leaves", leaveHandler.Apply)
		students.GET("/leaves/me", leaveHandler.Mine)
		students.GET("/announcements/me", announcementHandler.Feed)
	}

	teachers := authed.Group("")
	teachers.Use(middleware.RequireRoles(models.RoleTeacher))
	{
		teachers.POST("/courses", courseHandler.Create)
		teachers.GET("/courses/:id/students", courseHandler.Roster)
		teachers.PUT("/courses/:id/grades", gradeHandler.Upsert)
		teachers.POST("/courses/:id/grades/batch", gradeHandler.BatchUpsert)
		teachers.GET("/courses/:id/grades", gradeHandler.ListByCourse)
		teachers.POST("/courses/:id/grades/save", gradeHandler.SaveGrades)
		teachers.POST("/courses/:id/grades/reset", gradeHandler.ResetGradesStatus)
		teachers.POST("/courses/:id/grades/submit", gradeHandler.Submit)
		teachers.GET("/courses/:id/grades/export", exportHandler.CourseGradesCSV)
		teachers.POST("/schedules", scheduleHandler.CreateSlot)
		teachers.DELETE("/schedules/:id", scheduleHandler.DeleteSlot)
		teachers.GET("/schedules/teaching", scheduleHandler.TeachingTimetable)
		teachers.POST("/exams", scheduleHandler.CreateExam)
		teachers.POST("/announcements", announcementHandler.Create)
		teachers.DELETE("/announcements/:id", announcementHandler.Delete)
		teachers.POST("/materials", materialHandler.Upload)
		teachers.DELETE("/materials/:id", materialHandler.Delete)
	}

	reviewers := authed.Group("")
	reviewers.Use(middleware.RequireRoles(models.RoleTeacher, models.RoleCounselor))
	{
		reviewers.POST("/bookings/:id/approve", bookingHandler.Approve)
		reviewers.POST("/bookings/:id/reject", bookingHandler.Reject)
	}

	counselors := authed.Group("")
	counselors.Use(middleware.RequireRoles(models.RoleCounselor))
	{
		counselors.POST("/alerts", alertHandler.Create)
		counselors.GET("/alerts", alertHandler.List)
		counselors.GET("/alerts/export", exportHandler.AlertsCSV)
		counselors.PUT("/alerts/:id/status", alertHandler.UpdateStatus)
		counselors.POST("/alerts/:id/records", alertHandler.AddCounselingRecord)
		counselors.GET("/alerts/:id/records", alertHandler.CounselingRecords)
		counselors.GET("/leaves", leaveHandler.ListForReview)
		counselors.PUT("/leaves/:id/review", leaveHandler.Review)
		counselors.GET("/dashboard", dashboardHandler.Summary)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maintenance := jobs.NewQueue("maintenance", func(ctx context.Context, task jobs.Task) error {
		switch task.Type {
		case "expire-bookings":
			expired, err := bookings.ExpirePending(ctx, time.Now().Format("2006-01-02"))
			if err != nil {
				return err
			}
			if expired > 0 {
				logr.Sugar().Infow("expired stale bookings", "count", expired)
			}
			return nil
		default:
			logr.Sugar().Warnw("unknown maintenance task", "type", task.Type)
			return nil
		}
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	maintenance.Start(ctx)
	defer maintenance.Stop()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := maintenance.Enqueue(jobs.Task{Type: "expire-bookings"}); err != nil {
					logr.Sugar().Warnw("failed to enqueue booking expiry", "error", err)
				}
			}
		}
	}()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck
	}
}
