package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

// 内存版 Repository 实现，行为对齐数据库约束：
// 缺记录返回 gorm.ErrRecordNotFound，用户名重复返回 gorm.ErrDuplicatedKey

// ── 用户 ──

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		r.seq++
		user.UserID = fmt.Sprintf("user-%d", r.seq)
	}
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.UserID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if id != user.UserID && u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	r.users[user.UserID] = &cp
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

// ── 作业 ──

type memAssignmentRepo struct {
	mu          sync.Mutex
	seq         int
	assignments map[string]*model.Assignment
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{assignments: make(map[string]*model.Assignment)}
}

func (r *memAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.AssignmentID == "" {
		r.seq++
		a.AssignmentID = fmt.Sprintf("assign-%d", r.seq)
	}
	if a.Status == "" {
		a.Status = model.AssignmentPending
	}
	a.CreatedAt = time.Now()
	cp := *a
	r.assignments[a.AssignmentID] = &cp
	return nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAssignmentRepo) Update(_ context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.assignments[a.AssignmentID] = &cp
	return nil
}

func (r *memAssignmentRepo) MarkSubmitted(_ context.Context, id, studentID, submission string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.Status != model.AssignmentPending {
		return false, nil
	}
	a.StudentID = &studentID
	a.Submission = &submission
	a.SubmittedOn = &at
	a.Status = model.AssignmentSubmitted
	return true, nil
}

func (r *memAssignmentRepo) MarkGraded(_ context.Context, id string, grade float64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.Status != model.AssignmentSubmitted {
		return false, nil
	}
	a.Grade = &grade
	a.GradedOn = &at
	a.Status = model.AssignmentGraded
	return true, nil
}

func (r *memAssignmentRepo) List(_ context.Context) ([]model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]model.Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		result = append(result, *a)
	}
	return result, nil
}

func (r *memAssignmentRepo) ListByInstructor(_ context.Context, instructorID string) ([]model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Assignment
	for _, a := range r.assignments {
		if a.InstructorID == instructorID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Assignment
	for _, a := range r.assignments {
		if a.StudentID != nil && *a.StudentID == studentID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) ListVisibleToStudent(_ context.Context, studentID string) ([]model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Assignment
	for _, a := range r.assignments {
		if a.StudentID == nil || *a.StudentID == studentID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// ── 课程 ──

type memLessonRepo struct {
	mu       sync.Mutex
	seq      int
	lessons  map[string]*model.Lesson
	enrolled map[string]map[string]bool // lessonID → 学生 ID 集合
}

func newMemLessonRepo() *memLessonRepo {
	return &memLessonRepo{
		lessons:  make(map[string]*model.Lesson),
		enrolled: make(map[string]map[string]bool),
	}
}

func (r *memLessonRepo) Create(_ context.Context, l *model.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.LessonID == "" {
		r.seq++
		l.LessonID = fmt.Sprintf("lesson-%d", r.seq)
	}
	l.CreatedAt = time.Now()
	cp := *l
	r.lessons[l.LessonID] = &cp
	return nil
}

func (r *memLessonRepo) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lessons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	cp.Students = nil
	for sid := range r.enrolled[id] {
		cp.Students = append(cp.Students, model.User{UserID: sid, Role: model.RoleStudent})
	}
	return &cp, nil
}

func (r *memLessonRepo) List(_ context.Context) ([]model.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]model.Lesson, 0, len(r.lessons))
	for _, l := range r.lessons {
		result = append(result, *l)
	}
	return result, nil
}

func (r *memLessonRepo) ListByInstructor(_ context.Context, instructorID string) ([]model.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Lesson
	for _, l := range r.lessons {
		if l.InstructorID == instructorID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (r *memLessonRepo) ListEnrolled(_ context.Context, studentID string) ([]model.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Lesson
	for id, students := range r.enrolled {
		if students[studentID] {
			result = append(result, *r.lessons[id])
		}
	}
	return result, nil
}

func (r *memLessonRepo) Enroll(_ context.Context, lessonID, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enrolled[lessonID] == nil {
		r.enrolled[lessonID] = make(map[string]bool)
	}
	r.enrolled[lessonID][studentID] = true
	return nil
}

func (r *memLessonRepo) Unenroll(_ context.Context, lessonID, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enrolled[lessonID], studentID)
	return nil
}

// newTestRepo 组装内存仓储聚合（事务句柄为空，事务路径由集成测试覆盖）
func newTestRepo() (*repository.Repository, *memUserRepo, *memAssignmentRepo, *memLessonRepo) {
	users := newMemUserRepo()
	assignments := newMemAssignmentRepo()
	lessons := newMemLessonRepo()
	repo := &repository.Repository{
		User:       users,
		Assignment: assignments,
		Lesson:     lessons,
	}
	return repo, users, assignments, lessons
}
