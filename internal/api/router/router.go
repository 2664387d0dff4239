package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradebook/backend/config"
	"gradebook/backend/internal/api/handler"
	"gradebook/backend/internal/api/middleware"
	"gradebook/backend/internal/model"
	"gradebook/backend/pkg/jwt"
	"gradebook/backend/pkg/redis"
)

// 登录限流：每个 IP 每分钟最多 10 次尝试
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// maxBodyBytes 请求体上限（Excel 导入是最大的合法请求）
const maxBodyBytes = 8 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// 认证模块（登录无需认证，带限流）
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, loginRateWindow), h.Auth.Login)

			authed := auth.Group("")
			authed.Use(middleware.JWTAuth(jwtMgr, rdb))
			{
				authed.GET("/verify", h.Auth.Verify)
				authed.POST("/logout", h.Auth.Logout)
				authed.POST("/reset-password", h.Auth.ResetPassword)
			}
		}

		// 管理员模块
		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtMgr, rdb), middleware.RoleAuth(model.RoleAdmin))
		{
			admin.GET("/users", h.Admin.ListUsers)
			admin.POST("/users", h.Admin.CreateUser)
			admin.GET("/users/:id", h.Admin.GetUser)
			admin.PUT("/users/:id", h.Admin.UpdateUser)
			admin.DELETE("/users/:id", h.Admin.DeleteUser)
			admin.POST("/users/import", h.Admin.ImportUsers)
			admin.GET("/assignments", h.Admin.ListAssignments)
			admin.GET("/lessons", h.Admin.ListLessons)
		}

		// 教师模块
		instructor := api.Group("/instructor")
		instructor.Use(middleware.JWTAuth(jwtMgr, rdb), middleware.RoleAuth(model.RoleInstructor))
		{
			instructor.GET("/dashboard", h.Instructor.Dashboard)
			instructor.GET("/lessons", h.Instructor.ListLessons)
			instructor.POST("/lesson", h.Instructor.CreateLesson)
			instructor.POST("/assignment", h.Instructor.CreateAssignment)
			instructor.PUT("/assignment/:id/grade", h.Instructor.GradeAssignment)
		}

		// 学生模块
		student := api.Group("/student")
		student.Use(middleware.JWTAuth(jwtMgr, rdb), middleware.RoleAuth(model.RoleStudent))
		{
			student.GET("/dashboard", h.Student.Dashboard)
			student.GET("/lessons", h.Student.ListLessons)
			student.GET("/my-assignments", h.Student.MyAssignments)
			student.POST("/assignment/:id/submit", h.Student.SubmitAssignment)
			student.POST("/lesson/:id/enroll", h.Student.EnrollLesson)
			student.POST("/lesson/:id/unenroll", h.Student.UnenrollLesson)
		}
	}

	return r
}
