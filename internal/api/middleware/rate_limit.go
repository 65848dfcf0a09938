package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ptit-library/pkg/response"
)

// RateChecker 窗口计数限流（Redis 实现）
type RateChecker interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 速率限制中间件
// checker 为 nil 时使用进程内令牌桶；Redis 出错时降级放行。
// 已登录请求按用户计数，否则按客户端 IP。
func RateLimit(checker RateChecker, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	local := newLocalLimiter(limit, window)

	return func(c *gin.Context) {
		key := rateLimitKey(c)

		var allowed bool
		if checker != nil {
			ok, err := checker.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err != nil {
				c.Next()
				return
			}
			allowed = ok
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	subject := c.GetString("user_id")
	if subject == "" {
		subject = c.ClientIP()
	}
	return fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), subject)
}

// ── 进程内令牌桶 ──

type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	every    rate.Limit
	burst    int
	window   time.Duration
	lastGC   time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		limiters: make(map[string]*localEntry),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		lastGC:   time.Now(),
	}
}

func (l *localLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// 长时间未访问的 key 在桶已回满后清理
	if now.Sub(l.lastGC) > l.window {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.window {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
