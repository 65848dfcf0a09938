package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ptit-library/internal/dto"
	"ptit-library/internal/service"
	"ptit-library/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, 11001, "学号或密码错误")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// RefreshToken 刷新 Token（沿用原会话）
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.Unauthorized(c, 11002, "登录已失效，请重新登录")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout 用户登出：销毁会话数据并吊销 Token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	// refresh_token 可选
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)

	jti, exp := GetTokenInfo(c)
	err := h.authSvc.Logout(c.Request.Context(), &service.LogoutInput{
		SessionID:      GetSessionID(c),
		AccessTokenID:  jti,
		AccessTokenExp: exp,
		RefreshToken:   req.RefreshToken,
	})
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKWithMessage(c, "已退出登录", nil)
}

// GetCurrentUser 获取当前用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
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

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			response.BadRequest(c, 11003, "原密码错误")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 11004, "用户不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OKWithMessage(c, "密码已修改", nil)
}
