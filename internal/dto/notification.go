package dto

// ── 通知模块 DTO ──

// NotificationResponse 通知列表项
type NotificationResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
	Time    string `json:"time"`
}

// NotificationSummaryResponse 顶栏通知摘要
type NotificationSummaryResponse struct {
	UnreadCount int64                  `json:"unread_count"`
	Recent      []NotificationResponse `json:"recent"`
}

// LoadMoreNotificationsRequest 向下加载更多
type LoadMoreNotificationsRequest struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// LoadMoreNotificationsResponse 加载更多结果
type LoadMoreNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	NextOffset    int                    `json:"next_offset"`
	HasMore       bool                   `json:"has_more"`
}

// ReadNotificationResponse 阅读单条通知
type ReadNotificationResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time"`
}
