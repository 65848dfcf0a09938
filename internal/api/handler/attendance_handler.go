package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ptit-library/internal/dto"
	"ptit-library/internal/service"
	"ptit-library/pkg/response"
)

// AttendanceHandler 签到模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// GenerateCode 生成本会话的签到码与二维码
// GET /api/v1/attendance/qr/generate
func (h *AttendanceHandler) GenerateCode(c *gin.Context) {
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.GenerateCode(c.Request.Context(), sid)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Check 提交签到码：签到或签退
// POST /api/v1/attendance/check
func (h *AttendanceHandler) Check(c *gin.Context) {
	var req dto.AttendanceCheckRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "请输入签到码")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	sid, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckCode(c.Request.Context(), sid, userID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrAttendanceCodeInvalid) {
			response.BadRequest(c, 15001, "签到码无效或已过期")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKWithMessage(c, result.Message, result)
}

// History 我的签到记录
// GET /api/v1/attendance/history?start=&end=
func (h *AttendanceHandler) History(c *gin.Context) {
	var req dto.AttendanceHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15002, "日期格式应为 YYYY-MM-DD")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.History(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			response.BadRequest(c, 15002, "日期格式应为 YYYY-MM-DD")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// Statistics 近 10 个月的签到次数
// GET /api/v1/attendance/statistics
func (h *AttendanceHandler) Statistics(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.MonthlyStatistics(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Top 签到次数排行
// GET /api/v1/attendance/top
func (h *AttendanceHandler) Top(c *gin.Context) {
	result, err := h.attendanceSvc.TopAttendees(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
