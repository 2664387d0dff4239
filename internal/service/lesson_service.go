package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradebook/backend/internal/authz"
	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

// LessonService 课程业务接口
type LessonService interface {
	Create(ctx context.Context, req *dto.CreateLessonRequest, callerID string, callerRole model.Role) (*dto.LessonDetail, error)
	GetByID(ctx context.Context, id string) (*dto.LessonDetail, error)
	ListAll(ctx context.Context, callerRole model.Role) ([]dto.LessonSummary, error)
	Browse(ctx context.Context, callerRole model.Role) ([]dto.LessonSummary, error)
	ListForInstructor(ctx context.Context, callerID string, callerRole model.Role) ([]dto.LessonSummary, error)
	ListEnrolled(ctx context.Context, callerID string, callerRole model.Role) ([]dto.LessonSummary, error)
	Enroll(ctx context.Context, lessonID, callerID string, callerRole model.Role) (*dto.LessonDetail, error)
	Unenroll(ctx context.Context, lessonID, callerID string, callerRole model.Role) (*dto.LessonDetail, error)
}

type lessonService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLessonService 创建 LessonService 实例
func NewLessonService(repo *repository.Repository, logger *zap.Logger) LessonService {
	return &lessonService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *lessonService) Create(ctx context.Context, req *dto.CreateLessonRequest, callerID string, callerRole model.Role) (*dto.LessonDetail, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonCreate, "", callerID); !d.Allowed {
		return nil, denyError(d)
	}

	lesson := &model.Lesson{
		Title:        req.Title,
		Content:      req.Content,
		Description:  req.Description,
		DueDate:      req.DueDate,
		InstructorID: callerID,
	}

	if err := s.repo.Lesson.Create(ctx, lesson); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	return dto.ToLessonDetail(lesson), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *lessonService) GetByID(ctx context.Context, id string) (*dto.LessonDetail, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dto.ToLessonDetail(lesson), nil
}

// ────────────────────── 列表查询 ──────────────────────

func (s *lessonService) ListAll(ctx context.Context, callerRole model.Role) ([]dto.LessonSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonReadAll, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	lessons, err := s.repo.Lesson.List(ctx)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}
	return dto.ToLessonSummaries(lessons), nil
}

// Browse 学生浏览课程目录（选课入口）
func (s *lessonService) Browse(ctx context.Context, callerRole model.Role) ([]dto.LessonSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonBrowse, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	lessons, err := s.repo.Lesson.List(ctx)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}
	return dto.ToLessonSummaries(lessons), nil
}

func (s *lessonService) ListForInstructor(ctx context.Context, callerID string, callerRole model.Role) ([]dto.LessonSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonReadOwn, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	lessons, err := s.repo.Lesson.ListByInstructor(ctx, callerID)
	if err != nil {
		s.logger.Error("列出课程失败", zap.String("instructor", callerID), zap.Error(err))
		return nil, err
	}
	return dto.ToLessonSummaries(lessons), nil
}

func (s *lessonService) ListEnrolled(ctx context.Context, callerID string, callerRole model.Role) ([]dto.LessonSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonReadEnrolled, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	lessons, err := s.repo.Lesson.ListEnrolled(ctx, callerID)
	if err != nil {
		s.logger.Error("列出已选课程失败", zap.String("student", callerID), zap.Error(err))
		return nil, err
	}
	return dto.ToLessonSummaries(lessons), nil
}

// ────────────────────── Enroll / Unenroll ──────────────────────

// Enroll 学生选课。幂等：重复选课不报错，成员关系最多一条
func (s *lessonService) Enroll(ctx context.Context, lessonID, callerID string, callerRole model.Role) (*dto.LessonDetail, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonEnroll, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	// 先确认课程存在，把 404 与外键错误区分开
	if _, err := s.repo.Lesson.GetByID(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", lessonID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Lesson.Enroll(ctx, lessonID, callerID); err != nil {
		s.logger.Error("选课失败", zap.String("lesson", lessonID),
			zap.String("student", callerID), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, lessonID)
}

// Unenroll 学生退课。幂等：未选课的学生退课是空操作
func (s *lessonService) Unenroll(ctx context.Context, lessonID, callerID string, callerRole model.Role) (*dto.LessonDetail, error) {
	if d := authz.Authorize(callerRole, authz.OpLessonUnenroll, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	if _, err := s.repo.Lesson.GetByID(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", lessonID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Lesson.Unenroll(ctx, lessonID, callerID); err != nil {
		s.logger.Error("退课失败", zap.String("lesson", lessonID),
			zap.String("student", callerID), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, lessonID)
}
