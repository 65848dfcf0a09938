package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// CreateUserRequest 创建用户（运维命令使用）
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=30"`
	Name     string `json:"name"     binding:"required,max=100"`
	Email    string `json:"email"    binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Role     string `json:"role"     binding:"omitempty,oneof=student staff admin"`
}
