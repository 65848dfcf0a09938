package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ptit-library/config"
	"ptit-library/internal/api/handler"
	"ptit-library/internal/api/router"
	"ptit-library/internal/repository"
	"ptit-library/internal/service"
	"ptit-library/internal/session"
	"ptit-library/pkg/database"
	"ptit-library/pkg/jwt"
	applogger "ptit-library/pkg/logger"
	"ptit-library/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("LIB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Library.Timezone),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时会话退回进程内存储，黑名单与分布式限流不可用）
	var (
		sessions  session.Store
		blacklist service.TokenBlacklist
		deps      = router.Deps{DB: db, Logger: logger}
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级为单实例模式", zap.Error(err))
		rdb = nil
		mem := session.NewMemoryStore()
		defer mem.Close()
		sessions = mem
	} else {
		sessions = session.NewRedisStore(rdb)
		blacklist = rdb
		deps.Blacklist = rdb
		deps.Limiter = rdb
	}

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	deps.JWT = jwtMgr

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, sessions, blacklist, logger)
	h := handler.NewHandler(svc)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, deps)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出 Excel 需要更长的写超时
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
