package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gradebook/backend/config"
	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
	"gradebook/backend/pkg/jwt"
	"gradebook/backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	// 用户不存在和密码错误返回同一个错误，避免用户名枚举
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password does not meet the strength policy")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetail, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	Logout(ctx context.Context, jti string, expiresAt *time.Time) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
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

	// 3. 签发 Token（sub=用户 ID，携带角色声明）
	token, err := s.jwtMgr.Generate(user.UserID, user.Role.String())
	if err != nil {
		s.logger.Error("签发 Token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  dto.ToUserSummary(user),
	}, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetail, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}

	return loadUserDetail(ctx, s.repo, user)
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return err
	}

	// 旧密码验证在前，强度校验在后：先确认调用者身份再泄露策略信息
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新密码失败", zap.String("id", userID), zap.Error(err))
		return err
	}

	return nil
}

// Logout 登出。Token 本身无状态；Redis 可用时将 jti 加入撤销名单，
// 否则退化为纯确认语义（与原系统一致）
func (s *authService) Logout(ctx context.Context, jti string, expiresAt *time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}

	// 有过期时间的 Token 只需保留到过期；默认配置下 Token 不过期，永久保留
	var ttl time.Duration
	if expiresAt != nil {
		ttl = time.Until(*expiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	if err := s.rdb.RevokeToken(ctx, jti, ttl); err != nil {
		// 撤销失败不阻断登出，但要留痕
		s.logger.Warn("Token 撤销写入失败", zap.String("jti", jti), zap.Error(err))
	}
	return nil
}

// ── 密码强度策略 ──

// passwordSymbols 策略允许的符号集合
const passwordSymbols = "!@#$%^&*()-_=+[]{};:,.<>?"

// ValidatePassword 校验密码强度：至少 8 位，
// 且包含大写字母、小写字母、数字、指定符号各至少一个
func ValidatePassword(pw string) error {
	if len(pw) < 8 {
		return ErrWeakPassword
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	if !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

// loadUserDetail 加载用户的关联实体并投影为详细视图
// 四类关联均以无回引摘要嵌入，见 dto 包的投影说明
func loadUserDetail(ctx context.Context, repo *repository.Repository, user *model.User) (*dto.UserDetail, error) {
	var (
		authored, received []model.Assignment
		taught, enrolled   []model.Lesson
		err                error
	)

	if user.IsInstructor() {
		if authored, err = repo.Assignment.ListByInstructor(ctx, user.UserID); err != nil {
			return nil, err
		}
		if taught, err = repo.Lesson.ListByInstructor(ctx, user.UserID); err != nil {
			return nil, err
		}
	}
	if user.IsStudent() {
		if received, err = repo.Assignment.ListByStudent(ctx, user.UserID); err != nil {
			return nil, err
		}
		if enrolled, err = repo.Lesson.ListEnrolled(ctx, user.UserID); err != nil {
			return nil, err
		}
	}

	return dto.ToUserDetail(user, authored, received, taught, enrolled), nil
}
