package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ptit-library/internal/dto"
	"ptit-library/internal/service"
	"ptit-library/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// Summary 未读数 + 最近 10 条
// GET /api/v1/notifications/summary
func (h *NotificationHandler) Summary(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.Summary(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// LoadMore 向下加载更多
// GET /api/v1/notifications?offset=
func (h *NotificationHandler) LoadMore(c *gin.Context) {
	var req dto.LoadMoreNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notificationSvc.LoadMore(c.Request.Context(), userID, req.Offset)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Read 阅读单条通知并标记已读
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) Read(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notificationID, ok := MustGetUUIDParam(c, "id", 14001, "通知不存在")
	if !ok {
		return
	}

	result, err := h.notificationSvc.Read(c.Request.Context(), userID, notificationID)
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			response.NotFound(c, 14001, "通知不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// MarkAllRead 全部标记已读
// POST /api/v1/notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKWithMessage(c, "已全部标记为已读", gin.H{"updated": n})
}
