// Package session 定义按登录会话隔离的键值存储。
//
// 会话 ID 来自 JWT 的 sid 声明，登录时生成、刷新时沿用、登出时销毁。
// 签到码与逾期提醒标记等请求间状态都存放在这里，而不是进程内全局变量。
package session

import (
	"context"
	"time"

	"ptit-library/pkg/redis"
)

// 会话字段名
const (
	KeyAttendanceCode    = "attendance_code"
	KeyOverdueAlertShown = "overdue_alert_shown"
)

// Store 会话存储接口
type Store interface {
	// Get 读取字段；不存在或已过期时 ok=false
	Get(ctx context.Context, sid, key string) (value string, ok bool, err error)
	// Set 写入字段，ttl 为字段存活时间
	Set(ctx context.Context, sid, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, sid, key string) error
	// Destroy 清除整个会话
	Destroy(ctx context.Context, sid string) error
}

// redisStore 基于 Redis 的 Store 实现
type redisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	return s.client.SessionGet(ctx, sid, key)
}

func (s *redisStore) Set(ctx context.Context, sid, key, value string, ttl time.Duration) error {
	return s.client.SessionSet(ctx, sid, key, value, ttl)
}

func (s *redisStore) Delete(ctx context.Context, sid, key string) error {
	return s.client.SessionDelete(ctx, sid, key)
}

func (s *redisStore) Destroy(ctx context.Context, sid string) error {
	return s.client.SessionDestroy(ctx, sid)
}
