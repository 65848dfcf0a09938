package middleware

import (
	"github.com/gin-gonic/gin"
)

// 签到二维码以 data URI 下发，img-src 需放行 data:
const contentSecurityPolicy = "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"

// SecurityHeaders 安全 HTTP 头中间件
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", contentSecurityPolicy)
		// 扫码签到在馆内终端上完成，摄像头只对本站开放
		c.Header("Permissions-Policy", "camera=(self), microphone=(), geolocation=()")

		c.Next()
	}
}
