package model

// 用户角色
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// IsPrivilegedRole 馆员与管理员可以执行借还操作
func IsPrivilegedRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"username"` // 学号 / 工号
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
