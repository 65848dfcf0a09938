package session

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// 会话 ID 与字段名之间的分隔符，不会出现在 UUID 中
const keySep = "\x00"

// MemoryStore 进程内会话存储
// Redis 不可用时降级使用；多实例部署下会话不共享。
// 过期字段由后台协程定期清理，调用 Close 停止。
type MemoryStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemoryStore 创建进程内会话存储并启动过期清理
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New[string, string](
		// 读取不续期：签到码的有效期从生成时起算
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()
	return &MemoryStore{cache: cache}
}

func memoryKey(sid, key string) string {
	return sid + keySep + key
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	item := s.cache.Get(memoryKey(sid, key))
	if item == nil || item.IsExpired() {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.cache.Set(memoryKey(sid, key), value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid, key string) error {
	s.cache.Delete(memoryKey(sid, key))
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, sid string) error {
	prefix := sid + keySep
	for _, k := range s.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Delete(k)
		}
	}
	return nil
}

// Len 当前缓存的字段数，包括尚未被清理的过期字段
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close 停止后台清理协程
func (s *MemoryStore) Close() {
	s.cache.Stop()
}
