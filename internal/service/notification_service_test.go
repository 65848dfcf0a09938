package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ptit-library/internal/model"
)

func setupNotificationService() (NotificationService, *mockRepos) {
	repo, mocks := newMockRepository()
	svc := NewNotificationService(repo, fixedClock(localTime(2024, 5, 20, 9, 0)), zap.NewNop())
	return svc, mocks
}

func seedNotifications(t *testing.T, m *mockRepos, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := m.notification.Create(context.Background(), &model.Notification{
			UserID:  userID,
			Type:    model.NotificationBorrowSuccess,
			Title:   fmt.Sprintf("通知 %d", i+1),
			Message: strings.Repeat("长", 100),
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNotificationSummary(t *testing.T) {
	svc, mocks := setupNotificationService()
	seedNotifications(t, mocks, "u1", 12)
	seedNotifications(t, mocks, "u2", 1)
	mocks.notification.items[0].IsRead = true

	summary, err := svc.Summary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summary 失败: %v", err)
	}
	if summary.UnreadCount != 11 {
		t.Errorf("期望 11 条未读，实际 %d", summary.UnreadCount)
	}
	if len(summary.Recent) != notificationRecentLimit {
		t.Fatalf("期望最近 %d 条，实际 %d", notificationRecentLimit, len(summary.Recent))
	}
	if summary.Recent[0].Title != "通知 12" {
		t.Errorf("应按时间倒序，首条实际为 %s", summary.Recent[0].Title)
	}
	if len([]rune(summary.Recent[0].Message)) != 100 {
		t.Error("摘要中的消息不应截断")
	}
}

func TestNotificationLoadMore(t *testing.T) {
	svc, mocks := setupNotificationService()
	seedNotifications(t, mocks, "u1", 15)

	page, err := svc.LoadMore(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("LoadMore 失败: %v", err)
	}
	if len(page.Notifications) != notificationPageLimit || !page.HasMore || page.NextOffset != 10 {
		t.Errorf("第一页不符: n=%d hasMore=%v next=%d", len(page.Notifications), page.HasMore, page.NextOffset)
	}
	if n := len([]rune(page.Notifications[0].Message)); n != notificationPreviewLen {
		t.Errorf("预览应截断为 %d 字符，实际 %d", notificationPreviewLen, n)
	}

	rest, err := svc.LoadMore(context.Background(), "u1", page.NextOffset)
	if err != nil {
		t.Fatalf("LoadMore 失败: %v", err)
	}
	if len(rest.Notifications) != 5 || rest.HasMore {
		t.Errorf("第二页不符: n=%d hasMore=%v", len(rest.Notifications), rest.HasMore)
	}
}

func TestNotificationRead(t *testing.T) {
	svc, mocks := setupNotificationService()
	seedNotifications(t, mocks, "u1", 1)
	id := mocks.notification.items[0].NotificationID

	if _, err := svc.Read(context.Background(), "u2", id); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("不能读取他人的通知，实际 %v", err)
	}
	if mocks.notification.items[0].IsRead {
		t.Fatal("他人读取不应标记已读")
	}

	resp, err := svc.Read(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Read 失败: %v", err)
	}
	if !mocks.notification.items[0].IsRead {
		t.Error("读取后应标记已读")
	}
	// 2024-05-01 00:00 UTC → 07:00 本地时间
	if resp.Time != "01/05/2024 07:00" {
		t.Errorf("时间格式不符: %s", resp.Time)
	}
	if len([]rune(resp.Message)) != 100 {
		t.Error("阅读时应返回完整消息")
	}
}

func TestNotificationMarkAllRead(t *testing.T) {
	svc, mocks := setupNotificationService()
	seedNotifications(t, mocks, "u1", 3)
	seedNotifications(t, mocks, "u2", 2)

	n, err := svc.MarkAllRead(context.Background(), "u1")
	if err != nil {
		t.Fatalf("MarkAllRead 失败: %v", err)
	}
	if n != 3 {
		t.Errorf("期望标记 3 条，实际 %d", n)
	}
	if unread, _ := mocks.notification.CountUnread(context.Background(), "u2"); unread != 2 {
		t.Errorf("不应影响其他用户，u2 未读 %d", unread)
	}

	again, _ := svc.MarkAllRead(context.Background(), "u1")
	if again != 0 {
		t.Errorf("重复标记应返回 0，实际 %d", again)
	}
}
