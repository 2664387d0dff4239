package service

import (
	"go.uber.org/zap"

	"gradebook/backend/config"
	"gradebook/backend/internal/repository"
	"gradebook/backend/pkg/jwt"
	"gradebook/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Assignment AssignmentService
	Lesson     LessonService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:       NewUserService(repo, logger),
		Assignment: NewAssignmentService(repo, logger),
		Lesson:     NewLessonService(repo, logger),
	}
}
