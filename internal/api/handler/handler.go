package handler

import "ptit-library/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Catalog      *CatalogHandler
	Borrow       *BorrowHandler
	Notification *NotificationHandler
	Attendance   *AttendanceHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Catalog:      NewCatalogHandler(svc.Catalog),
		Borrow:       NewBorrowHandler(svc.Borrow),
		Notification: NewNotificationHandler(svc.Notification),
		Attendance:   NewAttendanceHandler(svc.Attendance),
		Export:       NewExportHandler(svc.Export),
	}
}
