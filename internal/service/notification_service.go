package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/repository"
)

var ErrNotificationNotFound = errors.New("通知不存在")

const (
	notificationRecentLimit = 10
	notificationPageLimit   = 10
	notificationPreviewLen  = 80 // 加载更多时的消息预览长度（字符）
)

// NotificationService 站内通知（只读 + 标记已读；通知本身只由借阅流程产生）
type NotificationService interface {
	Summary(ctx context.Context, userID string) (*dto.NotificationSummaryResponse, error)
	LoadMore(ctx context.Context, userID string, offset int) (*dto.LoadMoreNotificationsResponse, error)
	Read(ctx context.Context, userID, notificationID string) (*dto.ReadNotificationResponse, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	clock  clock
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, clk clock, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, clock: clk, logger: logger}
}

func (s *notificationService) Summary(ctx context.Context, userID string) (*dto.NotificationSummaryResponse, error) {
	unread, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	recent, err := s.repo.Notification.ListByUser(ctx, userID, 0, notificationRecentLimit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.NotificationResponse, 0, len(recent))
	for i := range recent {
		list = append(list, s.toResponse(&recent[i], 0))
	}
	return &dto.NotificationSummaryResponse{UnreadCount: unread, Recent: list}, nil
}

func (s *notificationService) LoadMore(ctx context.Context, userID string, offset int) (*dto.LoadMoreNotificationsResponse, error) {
	if offset < 0 {
		offset = 0
	}
	// 多取一条用于判断是否还有下一页
	items, err := s.repo.Notification.ListByUser(ctx, userID, offset, notificationPageLimit+1)
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	hasMore := len(items) > notificationPageLimit
	if hasMore {
		items = items[:notificationPageLimit]
	}

	list := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		list = append(list, s.toResponse(&items[i], notificationPreviewLen))
	}
	return &dto.LoadMoreNotificationsResponse{
		Notifications: list,
		NextOffset:    offset + len(list),
		HasMore:       hasMore,
	}, nil
}

func (s *notificationService) Read(ctx context.Context, userID, notificationID string) (*dto.ReadNotificationResponse, error) {
	n, err := s.repo.Notification.GetByIDForUser(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	if !n.IsRead {
		if err := s.repo.Notification.MarkRead(ctx, notificationID, userID); err != nil {
			s.logger.Error("标记通知已读失败", zap.String("notification_id", notificationID), zap.Error(err))
			return nil, err
		}
	}

	return &dto.ReadNotificationResponse{
		Title:   n.Title,
		Message: n.Message,
		Time:    s.clock.Local(n.CreatedAt).Format(dto.DateTimeLayout),
	}, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// toResponse preview>0 时按字符截断消息
func (s *notificationService) toResponse(n *model.Notification, preview int) dto.NotificationResponse {
	msg := n.Message
	if preview > 0 {
		if r := []rune(msg); len(r) > preview {
			msg = string(r[:preview])
		}
	}
	return dto.NotificationResponse{
		ID:      n.NotificationID,
		Type:    n.Type,
		Title:   n.Title,
		Message: msg,
		IsRead:  n.IsRead,
		Time:    s.clock.Local(n.CreatedAt).Format(dto.DateTimeLayout),
	}
}
