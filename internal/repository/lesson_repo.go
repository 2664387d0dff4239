package repository

import (
	"context"

	"gorm.io/gorm"

	"gradebook/backend/internal/model"
)

// LessonRepository 课程数据访问接口（含选课边的集合语义操作）
type LessonRepository interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Lesson, error)
	List(ctx context.Context) ([]model.Lesson, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]model.Lesson, error)
	ListEnrolled(ctx context.Context, studentID string) ([]model.Lesson, error)
	Enroll(ctx context.Context, lessonID, studentID string) error
	Unenroll(ctx context.Context, lessonID, studentID string) error
}

// lessonRepo LessonRepository 的 GORM 实现
type lessonRepo struct {
	db *gorm.DB
}

// NewLessonRepo 创建 LessonRepository 实例
func NewLessonRepo(db *gorm.DB) LessonRepository {
	return &lessonRepo{db: db}
}

func (r *lessonRepo) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Students").
		Where("lesson_id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) List(ctx context.Context) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) ListByInstructor(ctx context.Context, instructorID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) ListEnrolled(ctx context.Context, studentID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.WithContext(ctx).
		Joins("JOIN lesson_enrollments e ON e.lesson_id = lessons.lesson_id").
		Where("e.student_id = ?", studentID).
		Order("lessons.created_at DESC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

// Enroll 幂等选课：(student_id, lesson_id) 对已存在时不做任何事
func (r *lessonRepo) Enroll(ctx context.Context, lessonID, studentID string) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO lesson_enrollments (student_id, lesson_id) VALUES (?, ?)
		 ON CONFLICT (student_id, lesson_id) DO NOTHING`,
		studentID, lessonID,
	).Error
}

// Unenroll 幂等退课：对未选课的学生是空操作
func (r *lessonRepo) Unenroll(ctx context.Context, lessonID, studentID string) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM lesson_enrollments WHERE student_id = ? AND lesson_id = ?`,
		studentID, lessonID,
	).Error
}
