package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gradebook/backend/internal/model"
)

// AssignmentRepository 作业数据访问接口
// MarkSubmitted / MarkGraded 是带状态前置条件的单语句更新：
// WHERE 子句携带期望状态，返回的 bool 表示行是否真的发生了迁移，
// 并发竞争由数据库在行级裁决，不需要显式加锁
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	MarkSubmitted(ctx context.Context, id, studentID, submission string, at time.Time) (bool, error)
	MarkGraded(ctx context.Context, id string, grade float64, at time.Time) (bool, error)
	List(ctx context.Context) ([]model.Assignment, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]model.Assignment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Assignment, error)
	ListVisibleToStudent(ctx context.Context, studentID string) ([]model.Assignment, error)
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Student").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// MarkSubmitted pending → submitted，同时认领作业
func (r *assignmentRepo) MarkSubmitted(ctx context.Context, id, studentID, submission string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("assignment_id = ? AND status = ?", id, model.AssignmentPending).
		Updates(map[string]interface{}{
			"student_id":   studentID,
			"submission":   submission,
			"submitted_on": at,
			"status":       model.AssignmentSubmitted,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkGraded submitted → graded，终态
func (r *assignmentRepo) MarkGraded(ctx context.Context, id string, grade float64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("assignment_id = ? AND status = ?", id, model.AssignmentSubmitted).
		Updates(map[string]interface{}{
			"grade":     grade,
			"graded_on": at,
			"status":    model.AssignmentGraded,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *assignmentRepo) List(ctx context.Context) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListByInstructor(ctx context.Context, instructorID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListVisibleToStudent 学生可见作业：未认领（广播）或指派给该学生
func (r *assignmentRepo) ListVisibleToStudent(ctx context.Context, studentID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("student_id IS NULL OR student_id = ?", studentID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
