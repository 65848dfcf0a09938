package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ptit-library/internal/dto"
	"ptit-library/internal/repository"
	"ptit-library/internal/session"
	"ptit-library/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("学号或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidToken       = errors.New("登录已失效，请重新登录")
	ErrWrongPassword      = errors.New("原密码错误")
)

// TokenBlacklist Token 吊销存储（由 Redis 客户端实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// LogoutInput 登出时需要作废的会话与 Token
type LogoutInput struct {
	SessionID      string
	AccessTokenID  string
	AccessTokenExp time.Time
	RefreshToken   string // 可选
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, in *LogoutInput) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	sessions  session.Store
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	sessions session.Store,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		sessions:  sessions,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 新会话 + Token 对
	sub := jwt.Subject{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: jwt.NewSessionID(),
	}
	resp, err := s.issueTokens(sub)
	if err != nil {
		return nil, err
	}
	resp.User = toUserResponse(user)
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// Redis 故障时放行，与鉴权中间件的降级策略一致
			s.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidToken
		}
	}

	// 用户可能已被删除或角色已变更，以数据库为准
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	sub := jwt.Subject{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: claims.SessionID,
	}
	resp, err := s.issueTokens(sub)
	if err != nil {
		return nil, err
	}
	resp.User = toUserResponse(user)

	// 旧 Refresh Token 单次使用
	if s.blacklist != nil && claims.ExpiresAt != nil {
		if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Warn("作废旧 RefreshToken 失败", zap.Error(err))
		}
	}
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, in *LogoutInput) error {
	if in.SessionID != "" {
		if err := s.sessions.Destroy(ctx, in.SessionID); err != nil {
			s.logger.Error("销毁会话失败", zap.String("sid", in.SessionID), zap.Error(err))
			return err
		}
	}

	if s.blacklist == nil {
		return nil
	}
	if in.AccessTokenID != "" {
		if err := s.blacklist.BlacklistToken(ctx, in.AccessTokenID, time.Until(in.AccessTokenExp)); err != nil {
			s.logger.Warn("AccessToken 加入黑名单失败", zap.Error(err))
		}
	}
	if in.RefreshToken != "" {
		claims, err := s.jwtMgr.ParseToken(in.RefreshToken)
		if err == nil && claims.ExpiresAt != nil {
			if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
				s.logger.Warn("RefreshToken 加入黑名单失败", zap.Error(err))
			}
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	if err := s.repo.User.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("用户修改密码", zap.String("user_id", userID))
	return nil
}

func (s *authService) issueTokens(sub jwt.Subject) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(sub)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(sub)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}
