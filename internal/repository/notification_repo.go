package repository

import (
	"context"

	"gorm.io/gorm"

	"ptit-library/internal/model"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// ExistsUnread 去重检查：同一用户、同一类型、同一本书是否已有未读通知
	ExistsUnread(ctx context.Context, userID, notificationType, bookID string) (bool, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ExistsUnread(ctx context.Context, userID, notificationType, bookID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND type = ? AND book_id = ? AND is_read = ?", userID, notificationType, bookID, false).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, notification_id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *notificationRepo) GetByIDForUser(ctx context.Context, id, userID string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Update("is_read", true).Error
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
