package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ptit-library/config"
	"ptit-library/internal/api/handler"
	"ptit-library/internal/api/middleware"
	"ptit-library/internal/model"
	"ptit-library/pkg/jwt"
)

// Deps 路由依赖的外部组件；Blacklist 与 Limiter 为 nil 时降级运行
type Deps struct {
	JWT       *jwt.Manager
	Blacklist middleware.BlacklistChecker
	Limiter   middleware.RateChecker
	DB        *gorm.DB
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	logger := deps.Logger

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(deps.DB))

	staff := middleware.RoleAuth(model.RoleStaff, model.RoleAdmin)
	loginLimit := middleware.RateLimit(deps.Limiter, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow)
	checkLimit := middleware.RateLimit(deps.Limiter, cfg.RateLimit.CheckLimit, cfg.RateLimit.CheckWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(deps.JWT, deps.Blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 馆藏
			authorized.GET("/collections", h.Catalog.ListCollections)
			authorized.GET("/collections/:id/books", h.Catalog.SubCollectionBooks)
			books := authorized.Group("/books")
			{
				books.GET("", h.Catalog.ListBooks)
				books.GET("/:id", h.Catalog.GetBook)
				books.POST("", staff, h.Catalog.CreateBook)
				books.PUT("/:id", staff, h.Catalog.UpdateBook)
			}

			// 借阅（读者）
			authorized.POST("/register/:book_id", h.Borrow.Register)
			authorized.POST("/cancel/:borrow_id", h.Borrow.Cancel)
			authorized.GET("/myborrows", h.Borrow.MyBorrows)

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("/summary", h.Notification.Summary)
				notifications.GET("", h.Notification.LoadMore)
				notifications.POST("/mark-all-read", h.Notification.MarkAllRead)
				notifications.POST("/:id/read", h.Notification.Read)
			}

			// 签到
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("/qr/generate", h.Attendance.GenerateCode)
				attendance.POST("/check", checkLimit, h.Attendance.Check)
				attendance.GET("/history", h.Attendance.History)
				attendance.GET("/statistics", h.Attendance.Statistics)
				attendance.GET("/top", h.Attendance.Top)
			}

			// 馆员后台
			admin := authorized.Group("/admin", staff)
			{
				admin.GET("/borrows", h.Borrow.AdminList)
				admin.POST("/borrows", h.Borrow.AdminCreate)
				admin.GET("/borrows/statistics", h.Borrow.Statistics)
				admin.GET("/borrows/export-overdue", h.Export.ExportOverdue)
				admin.PUT("/borrows/:id/activate", h.Borrow.Activate)
				admin.PUT("/borrows/:id/return", h.Borrow.Return)
				admin.PUT("/borrows/:id/status", h.Borrow.UpdateStatus)

				admin.GET("/users/:id", h.User.GetUser)
				admin.POST("/users", middleware.RoleAuth(model.RoleAdmin), h.User.CreateUser)
			}
		}
	}

	return r
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
