package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ptit-library/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetSessionID 提取登录会话 ID（签到码、逾期提醒标记都挂在会话上）
func MustGetSessionID(c *gin.Context) (string, bool) {
	sid := c.GetString("session_id")
	if sid == "" {
		response.Unauthorized(c, 10002, "会话无效，请重新登录")
		return "", false
	}
	return sid, true
}

// MustGetUUIDParam 提取 UUID 形式的路径参数并规范化。
// 格式不合法的 ID 不可能对应任何记录，直接写入 404 响应。
func MustGetUUIDParam(c *gin.Context, name string, code int, message string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.NotFound(c, code, message)
		return "", false
	}
	return id.String(), true
}

// GetSessionID 会话 ID，不存在时返回空串
func GetSessionID(c *gin.Context) string {
	return c.GetString("session_id")
}

// GetTokenInfo 当前 Access Token 的 jti 与过期时间（登出时加入黑名单）
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}
