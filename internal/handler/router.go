package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/middleware"
	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-compass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-compass-api/pkg/middleware/requestid"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Logger         *zap.Logger
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool

	Tokens   middleware.TokenValidator
	Observer middleware.RequestObserver
	Audit    middleware.AuditWriter

	Auth          *AuthHandler
	Profile       *ProfileHandler
	Courses       *CourseHandler
	Enrollments   *EnrollmentHandler
	Schedules     *ScheduleHandler
	Assignments   *AssignmentHandler
	Grades        *GradeHandler
	Notifications *NotificationHandler
	Dashboard     *DashboardHandler
	Metrics       *MetricsHandler
}

// NewRouter builds the gin engine with the full middleware chain and route table.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Observer))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", deps.Metrics.Ready)
	r.GET("/metrics", deps.Metrics.Prometheus)
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/signup", middleware.OptionalJWT(deps.Tokens), deps.Auth.SignUp)
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	secured.POST("/auth/logout", deps.Auth.Logout)
	secured.GET("/auth/me", deps.Auth.Me)
	secured.PUT("/auth/password", deps.Auth.ChangePassword)

	secured.GET("/profile", deps.Profile.Get)
	secured.PUT("/profile", deps.Profile.Update)

	staff := middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin)
	students := middleware.RequireRoles(models.RoleStudent)
	admins := middleware.RequireRoles(models.RoleAdmin)

	users := secured.Group("/users", admins)
	users.GET("", deps.Profile.List)
	users.PATCH("/:id/role", middleware.Audit(deps.Audit, "user.role_changed", "user"), deps.Profile.UpdateRole)
	users.DELETE("/:id", middleware.Audit(deps.Audit, "user.deactivated", "user"), deps.Profile.Deactivate)

	courses := secured.Group("/courses")
	courses.GET("", deps.Courses.List)
	courses.GET("/mine", staff, deps.Courses.Mine)
	courses.GET("/:id", deps.Courses.Get)
	courses.POST("", staff, deps.Courses.Create)
	courses.PUT("/:id", staff, deps.Courses.Update)
	courses.GET("/:id/students", staff, deps.Courses.Students)
	courses.GET("/:id/schedules", deps.Schedules.ForCourse)
	courses.GET("/:id/assignments", deps.Assignments.ListForCourse)
	courses.POST("/:id/assignments", staff, deps.Assignments.Create)

	enrollments := secured.Group("/enrollments", students)
	enrollments.GET("/me", deps.Enrollments.ListMine)
	enrollments.POST("", deps.Enrollments.Enroll)
	enrollments.DELETE("/:id", deps.Enrollments.Drop)

	schedules := secured.Group("/schedules")
	schedules.GET("/me", deps.Schedules.Mine)
	schedules.GET("/me/day", deps.Schedules.Day)
	schedules.GET("/me/calendar", deps.Schedules.Calendar)
	schedules.GET("/me/occurrences", deps.Schedules.Occurrences)
	schedules.GET("/me.ics", deps.Schedules.ICS)
	schedules.GET("/me/timetable.pdf", deps.Schedules.Timetable)
	schedules.POST("", staff, deps.Schedules.Create)
	schedules.PUT("/:id", staff, deps.Schedules.Update)
	schedules.DELETE("/:id", staff, deps.Schedules.Delete)

	secured.GET("/assignments/pending", students, deps.Assignments.Pending)
	secured.POST("/assignments/:id/submissions", students, deps.Assignments.Submit)
	secured.GET("/assignments/:id/submissions", staff, deps.Assignments.Submissions)
	secured.POST("/submissions/:id/grade", staff, deps.Assignments.Grade)

	secured.GET("/grades/me", students, deps.Grades.ListMine)
	secured.GET("/grades/me/export", students, deps.Grades.Export)
	secured.POST("/grades", staff, deps.Grades.Record)
	secured.POST("/reports/transcript", students, deps.Grades.CreateTranscript)
	secured.GET("/reports/download", deps.Grades.Download)

	secured.GET("/notifications", deps.Notifications.List)
	secured.POST("/notifications/read-all", deps.Notifications.MarkAllRead)
	secured.POST("/notifications/:id/read", deps.Notifications.MarkRead)

	secured.GET("/dashboard", deps.Dashboard.Get)

	return r
}
