package model

import "time"

// BorrowStatus 借阅状态
type BorrowStatus string

const (
	BorrowPending  BorrowStatus = "pending"  // 已登记，等待馆员办理
	BorrowActive   BorrowStatus = "active"   // 借阅中
	BorrowReturned BorrowStatus = "returned" // 已归还
)

// Valid 是否为合法状态值
func (s BorrowStatus) Valid() bool {
	switch s {
	case BorrowPending, BorrowActive, BorrowReturned:
		return true
	}
	return false
}

// CanTransitionTo 状态机只允许 pending → active → returned
func (s BorrowStatus) CanTransitionTo(next BorrowStatus) bool {
	return (s == BorrowPending && next == BorrowActive) ||
		(s == BorrowActive && next == BorrowReturned)
}

// Borrow 借阅记录表，对应 borrows
type Borrow struct {
	BorrowID   string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"borrow_id"`
	UserID     string       `gorm:"type:uuid;not null"                             json:"user_id"`
	BookID     string       `gorm:"type:uuid;not null"                             json:"book_id"`
	BorrowCode string       `gorm:"type:varchar(20);not null;uniqueIndex"          json:"borrow_code"`
	Status     BorrowStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	BorrowDate time.Time    `gorm:"type:date;not null"                             json:"borrow_date"`
	DueDate    *time.Time   `gorm:"type:date"                                      json:"due_date,omitempty"`    // 激活时写入
	ReturnDate *time.Time   `gorm:"type:date"                                      json:"return_date,omitempty"` // 归还时写入
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID;references:BookID" json:"book,omitempty"`
}

// TableName 指定表名
func (Borrow) TableName() string { return "borrows" }

// IsOverdue 借阅中且到期日早于 today
func (b *Borrow) IsOverdue(today time.Time) bool {
	return b.Status == BorrowActive && b.DueDate != nil && b.DueDate.Before(DateOf(today))
}

// IsLateReturn 归还日晚于到期日；没有到期日的记录视为按时
func (b *Borrow) IsLateReturn() bool {
	return b.ReturnDate != nil && b.DueDate != nil && b.ReturnDate.After(*b.DueDate)
}
