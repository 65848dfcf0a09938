package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/service"
	"ptit-library/pkg/response"
)

// BorrowHandler 借阅模块 HTTP 处理器
type BorrowHandler struct {
	borrowSvc service.BorrowService
}

// NewBorrowHandler 创建 BorrowHandler
func NewBorrowHandler(borrowSvc service.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrowSvc: borrowSvc}
}

// ═══════════════════════════════════════════════════════════
// 读者
// ═══════════════════════════════════════════════════════════

// Register 登记借阅
// POST /api/v1/register/:book_id
func (h *BorrowHandler) Register(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookID, ok := MustGetUUIDParam(c, "book_id", 12001, service.ErrBookNotFound.Error())
	if !ok {
		return
	}

	borrow, err := h.borrowSvc.Register(c.Request.Context(), userID, bookID)
	if err != nil {
		h.handleBorrowError(c, err)
		return
	}

	msg := fmt.Sprintf("登记成功，借阅码 %s，请到图书馆服务台办理借书", borrow.Code)
	response.Created(c, msg, borrow)
}

// Cancel 取消待取的借阅
// POST /api/v1/cancel/:borrow_id
func (h *BorrowHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	borrowID, ok := MustGetUUIDParam(c, "borrow_id", 13004, service.ErrBorrowNotFound.Error())
	if !ok {
		return
	}

	if err := h.borrowSvc.Cancel(c.Request.Context(), userID, borrowID); err != nil {
		h.handleBorrowError(c, err)
		return
	}

	response.OKWithMessage(c, "已取消借阅登记", nil)
}

// MyBorrows 我的借阅（查看时生成到期提醒）
// GET /api/v1/myborrows
func (h *BorrowHandler) MyBorrows(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.borrowSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ═══════════════════════════════════════════════════════════
// 馆员
// ═══════════════════════════════════════════════════════════

// AdminList 借阅列表（状态 / 关键字 / 到期日筛选）
// GET /api/v1/admin/borrows
func (h *BorrowHandler) AdminList(c *gin.Context) {
	var req dto.AdminBorrowListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.borrowSvc.AdminList(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// AdminCreate 馆员代为登记
// POST /api/v1/admin/borrows
func (h *BorrowHandler) AdminCreate(c *gin.Context) {
	var req dto.AdminCreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	borrow, err := h.borrowSvc.AdminCreate(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleBorrowError(c, err)
		return
	}

	response.Created(c, "借阅已登记", borrow)
}

// Activate 办理借书：待取 → 借阅中
// PUT /api/v1/admin/borrows/:id/activate
func (h *BorrowHandler) Activate(c *gin.Context) {
	h.transition(c, model.BorrowActive)
}

// Return 办理还书：借阅中 → 已归还
// PUT /api/v1/admin/borrows/:id/return
func (h *BorrowHandler) Return(c *gin.Context) {
	h.transition(c, model.BorrowReturned)
}

// UpdateStatus 按目标状态推进
// PUT /api/v1/admin/borrows/:id/status
func (h *BorrowHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateBorrowStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	h.transition(c, model.BorrowStatus(req.Status))
}

func (h *BorrowHandler) transition(c *gin.Context, target model.BorrowStatus) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	borrowID, ok := MustGetUUIDParam(c, "id", 13004, service.ErrBorrowNotFound.Error())
	if !ok {
		return
	}

	borrow, err := h.borrowSvc.Transition(c.Request.Context(), borrowID, target, operatorID)
	if err != nil {
		h.handleBorrowError(c, err)
		return
	}

	msg := "借阅状态已更新"
	switch target {
	case model.BorrowActive:
		msg = fmt.Sprintf("借书成功，应还日期 %s", borrow.DueDate)
	case model.BorrowReturned:
		msg = "还书成功"
		if borrow.IsLate {
			msg = "还书成功（逾期归还）"
		}
	}
	response.OKWithMessage(c, msg, borrow)
}

// Statistics 借阅统计
// GET /api/v1/admin/borrows/statistics
func (h *BorrowHandler) Statistics(c *gin.Context) {
	result, err := h.borrowSvc.Statistics(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// handleBorrowError 业务错误的消息直接面向读者
func (h *BorrowHandler) handleBorrowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11004, err.Error())
	case errors.Is(err, service.ErrBorrowNotFound):
		response.NotFound(c, 13004, err.Error())
	case errors.Is(err, service.ErrBookUnavailable):
		response.Conflict(c, 13001, err.Error())
	case errors.Is(err, service.ErrBorrowDuplicate):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrBorrowLimitReached):
		response.Conflict(c, 13003, err.Error())
	case errors.Is(err, service.ErrBorrowInvalidTransition):
		response.Conflict(c, 13005, err.Error())
	case errors.Is(err, service.ErrBorrowConflict):
		response.Conflict(c, 13006, err.Error())
	case errors.Is(err, service.ErrInvalidDueDate):
		response.BadRequest(c, 13007, err.Error())
	default:
		response.InternalError(c)
	}
}
