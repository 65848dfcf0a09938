package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Collection   CollectionRepository
	Book         BookRepository
	Borrow       BorrowRepository
	Notification NotificationRepository
	EntryLog     EntryLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Collection:   NewCollectionRepo(db),
		Book:         NewBookRepo(db),
		Borrow:       NewBorrowRepo(db),
		Notification: NewNotificationRepo(db),
		EntryLog:     NewEntryLogRepo(db),
	}
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误或 panic 时回滚
// 未绑定数据库（单元测试中的 mock 聚合）时直接以自身执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
