package model

// 通知类型
const (
	NotificationBorrowSuccess = "borrow_success"
	NotificationReturnSuccess = "return_success"
	NotificationDueReminder   = "due_reminder"
)

// Notification 通知消息表，对应 notifications
// 仅由借阅状态变化或到期提醒检查产生，用户无法直接创建
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null"                             json:"user_id"`
	Type           string  `gorm:"type:varchar(30);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(100);not null"                     json:"title"`
	Message        string  `gorm:"type:text;not null"                             json:"message"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	BookID         *string `gorm:"type:uuid"                                      json:"book_id,omitempty"`   // 到期提醒去重键的一部分
	BorrowID       *string `gorm:"type:uuid"                                      json:"borrow_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
