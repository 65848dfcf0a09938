package model

import "time"

// Shift 签到班次：每天固定上午、下午两班，以本地时间 12:00 为界
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
)

// ShiftAt 根据本地时间判断班次
func ShiftAt(local time.Time) Shift {
	if local.Hour() < 12 {
		return ShiftMorning
	}
	return ShiftAfternoon
}

// EntryLog 进出馆签到记录，对应 entry_logs
// (user_id, shift, log_date) 唯一：每人每班每天至多一条
type EntryLog struct {
	EntryLogID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_log_id"`
	UserID     string     `gorm:"type:uuid;not null"                             json:"user_id"`
	Shift      Shift      `gorm:"type:varchar(10);not null"                      json:"shift"`
	LogDate    time.Time  `gorm:"type:date;not null"                             json:"log_date"`
	CheckIn    *time.Time `json:"check_in,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"` // 仅在 CheckIn 之后写入
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (EntryLog) TableName() string { return "entry_logs" }
