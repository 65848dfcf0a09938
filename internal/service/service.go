package service

import (
	"time"

	"go.uber.org/zap"

	"ptit-library/config"
	"ptit-library/internal/repository"
	"ptit-library/internal/session"
	"ptit-library/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Catalog      CatalogService
	Borrow       BorrowService
	Notification NotificationService
	Attendance   AttendanceService
	Export       ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（Redis 不可用时登出仅销毁会话）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	sessions session.Store,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	loc, err := cfg.Library.Location()
	if err != nil {
		logger.Warn("业务时区无效，回退到 UTC", zap.String("timezone", cfg.Library.Timezone), zap.Error(err))
		loc = time.UTC
	}
	clk := newClock(loc)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, sessions, blacklist, logger),
		User:         NewUserService(repo, logger),
		Catalog:      NewCatalogService(cfg, repo, sessions, clk, logger),
		Borrow:       NewBorrowService(&cfg.Library, repo, clk, logger),
		Notification: NewNotificationService(repo, clk, logger),
		Attendance:   NewAttendanceService(cfg, repo, sessions, clk, logger),
		Export:       NewExportService(repo, clk, logger),
	}
}
