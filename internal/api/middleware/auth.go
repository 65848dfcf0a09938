package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ptit-library/pkg/jwt"
	"ptit-library/pkg/response"
)

// BlacklistChecker Token 黑名单查询
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token。
// blacklist 为 nil 或查询出错时放行（Redis 不可用时降级）。
func JWTAuth(jwtMgr *jwt.Manager, blacklist BlacklistChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("查询 Token 黑名单失败，降级放行", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "Token 已失效，请重新登录")
				c.Abort()
				return
			}
		}

		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}

		// 将用户与会话信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("session_id", claims.SessionID)
		c.Set("token_jti", claims.ID)
		c.Set("token_exp", exp)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		if userRole == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
