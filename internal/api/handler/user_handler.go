package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ptit-library/internal/dto"
	"ptit-library/internal/service"
	"ptit-library/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// CreateUser 创建账号（管理员）
// POST /api/v1/admin/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameExists):
			response.Conflict(c, 11005, "学号已存在")
		case errors.Is(err, service.ErrInvalidRole):
			response.BadRequest(c, 11006, "角色无效")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, "账号已创建", user)
}

// GetUser 查看读者信息（馆员）
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := MustGetUUIDParam(c, "id", 11004, "用户不存在")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 11004, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, user)
}
