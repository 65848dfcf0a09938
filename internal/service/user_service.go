package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists = errors.New("学号已存在")
	ErrInvalidRole    = errors.New("无效的角色")
)

// UserService 用户业务接口
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)

	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	switch role {
	case model.RoleStudent, model.RoleStaff, model.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	// 检查学号唯一性
	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建用户", zap.String("user_id", user.UserID), zap.String("role", role))
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}
