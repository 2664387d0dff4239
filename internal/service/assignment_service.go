package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradebook/backend/internal/authz"
	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

// ── 作业模块业务错误 ──

var (
	// 生命周期是单向的 pending → submitted → graded，
	// 下面两个错误分别守住两条非法边：重复提交与越级评分
	ErrAlreadySubmitted = errors.New("assignment has already been submitted")
	ErrNotSubmitted     = errors.New("assignment has not been submitted yet")
	ErrAlreadyGraded    = errors.New("assignment has already been graded")
)

// AssignmentService 作业业务接口
type AssignmentService interface {
	Create(ctx context.Context, req *dto.CreateAssignmentRequest, callerID string, callerRole model.Role) (*dto.AssignmentDetail, error)
	Submit(ctx context.Context, assignmentID, submission, callerID string, callerRole model.Role) (*dto.AssignmentDetail, error)
	Grade(ctx context.Context, assignmentID string, grade float64, callerID string, callerRole model.Role) (*dto.AssignmentDetail, error)
	ListAll(ctx context.Context, callerRole model.Role) ([]dto.AssignmentSummary, error)
	ListForInstructor(ctx context.Context, callerID string, callerRole model.Role) ([]dto.AssignmentSummary, error)
	ListVisibleToStudent(ctx context.Context, callerID string, callerRole model.Role) ([]dto.AssignmentSummary, error)
	ListClaimedBy(ctx context.Context, callerID string, callerRole model.Role) ([]dto.AssignmentSummary, error)
}

type assignmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *assignmentService) Create(ctx context.Context, req *dto.CreateAssignmentRequest, callerID string, callerRole model.Role) (*dto.AssignmentDetail, error) {
	if d := authz.Authorize(callerRole, authz.OpAssignmentCreate, "", callerID); !d.Allowed {
		return nil, denyError(d)
	}

	assignment := &model.Assignment{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		Status:       model.AssignmentPending,
		InstructorID: callerID,
	}

	if err := s.repo.Assignment.Create(ctx, assignment); err != nil {
		s.logger.Error("创建作业失败", zap.Error(err))
		return nil, err
	}

	return dto.ToAssignmentDetail(assignment), nil
}

// ────────────────────── Submit ──────────────────────

// Submit 学生提交作业：pending → submitted
// 迁移通过带状态前置条件的单语句更新落库，
// 并发重复提交时恰好一个成功，其余收到 ErrAlreadySubmitted
func (s *assignmentService) Submit(ctx context.Context, assignmentID, submission, callerID string, callerRole model.Role) (*dto.AssignmentDetail, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}

	// 未认领作业对所有学生开放；已指派作业只接受被指派学生的提交
	owner := ""
	if assignment.StudentID != nil {
		owner = *assignment.StudentID
	}
	if d := authz.Authorize(callerRole, authz.OpAssignmentSubmit, owner, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	switch assignment.Status {
	case model.AssignmentSubmitted:
		return nil, ErrAlreadySubmitted
	case model.AssignmentGraded:
		return nil, ErrAlreadyGraded
	}

	ok, err := s.repo.Assignment.MarkSubmitted(ctx, assignmentID, callerID, submission, time.Now())
	if err != nil {
		s.logger.Error("提交作业失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	if !ok {
		// 预检之后有并发提交抢先完成了迁移
		return nil, ErrAlreadySubmitted
	}

	updated, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		s.logger.Error("查询作业失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	return dto.ToAssignmentDetail(updated), nil
}

// ────────────────────── Grade ──────────────────────

// Grade 教师评分：submitted → graded，终态
// 仅作业的布置者可评分；未提交的作业拒绝评分
func (s *assignmentService) Grade(ctx context.Context, assignmentID string, grade float64, callerID string, callerRole model.Role) (*dto.AssignmentDetail, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}

	if d := authz.Authorize(callerRole, authz.OpAssignmentGrade, assignment.InstructorID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	switch assignment.Status {
	case model.AssignmentPending:
		return nil, ErrNotSubmitted
	case model.AssignmentGraded:
		return nil, ErrAlreadyGraded
	}

	ok, err := s.repo.Assignment.MarkGraded(ctx, assignmentID, grade, time.Now())
	if err != nil {
		s.logger.Error("评分失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyGraded
	}

	updated, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		s.logger.Error("查询作业失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	return dto.ToAssignmentDetail(updated), nil
}

// ────────────────────── 列表查询 ──────────────────────

func (s *assignmentService) ListAll(ctx context.Context, callerRole model.Role) ([]dto.AssignmentSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpAssignmentReadAll, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	assignments, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("列出作业失败", zap.Error(err))
		return nil, err
	}
	return dto.ToAssignmentSummaries(assignments), nil
}

func (s *assignmentService) ListForInstructor(ctx context.Context, callerID string, callerRole model.Role) ([]dto.AssignmentSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpAssignmentReadOwn, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	assignments, err := s.repo.Assignment.ListByInstructor(ctx, callerID)
	if err != nil {
		s.logger.Error("列出作业失败", zap.String("instructor", callerID), zap.Error(err))
		return nil, err
	}
	return dto.ToAssignmentSummaries(assignments), nil
}

func (s *assignmentService) ListVisibleToStudent(ctx context.Context, callerID string, callerRole model.Role) ([]dto.AssignmentSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpAssignmentReadTargeted, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	assignments, err := s.repo.Assignment.ListVisibleToStudent(ctx, callerID)
	if err != nil {
		s.logger.Error("列出作业失败", zap.String("student", callerID), zap.Error(err))
		return nil, err
	}
	return dto.ToAssignmentSummaries(assignments), nil
}

// ListClaimedBy 本人名下的作业：指派给本人的，无论尚未提交、已提交还是已评分
func (s *assignmentService) ListClaimedBy(ctx context.Context, callerID string, callerRole model.Role) ([]dto.AssignmentSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpAssignmentReadTargeted, callerID, callerID); !d.Allowed {
		return nil, denyError(d)
	}

	assignments, err := s.repo.Assignment.ListByStudent(ctx, callerID)
	if err != nil {
		s.logger.Error("列出作业失败", zap.String("student", callerID), zap.Error(err))
		return nil, err
	}
	return dto.ToAssignmentSummaries(assignments), nil
}
