package dto

import (
	"time"

	"gradebook/backend/internal/model"
)

// 实体之间的关联是双向的（User ↔ Assignment ↔ Lesson），
// 序列化必须在嵌套一层后截断，否则会无限递归。
// 这里不走通用的"排除字段"机制，而是为每个视图手写投影：
// Summary 视图不含任何嵌套实体，Detail 视图只嵌套 Summary。
// 密码哈希不出现在任何视图中。

// ── 视图类型 ──

// UserSummary 用户简要视图（嵌入到其他实体时使用）
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserDetail 用户详细视图：本人信息 + 关联实体的无回引摘要
type UserDetail struct {
	ID                 string              `json:"id"`
	Username           string              `json:"username"`
	Role               string              `json:"role"`
	Assignments        []AssignmentSummary `json:"assignments"`         // 教师身份布置的作业
	StudentAssignments []AssignmentSummary `json:"student_assignments"` // 学生身份收到的作业
	Lessons            []LessonSummary     `json:"lessons"`             // 教师身份开设的课程
	EnrolledLessons    []LessonSummary     `json:"enrolled_lessons"`    // 学生身份选修的课程
	CreatedAt          time.Time           `json:"created_at"`
}

// AssignmentSummary 作业摘要视图：仅标量字段和外键，不嵌套用户
type AssignmentSummary struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      time.Time  `json:"due_date"`
	Status       string     `json:"status"`
	Grade        *float64   `json:"grade"`
	Submission   *string    `json:"submission"`
	SubmittedOn  *time.Time `json:"submitted_on"`
	GradedOn     *time.Time `json:"graded_on"`
	InstructorID string     `json:"instructor_id"`
	StudentID    *string    `json:"student_id"`
}

// AssignmentDetail 作业详细视图：摘要 + 师生简要信息
type AssignmentDetail struct {
	AssignmentSummary
	Instructor *UserSummary `json:"instructor,omitempty"`
	Student    *UserSummary `json:"student,omitempty"`
}

// LessonSummary 课程摘要视图：仅标量字段和外键，不嵌套用户
type LessonSummary struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Description  *string    `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	InstructorID string     `json:"instructor_id"`
}

// LessonDetail 课程详细视图：摘要 + 教师与选课学生简要信息
type LessonDetail struct {
	LessonSummary
	Instructor *UserSummary  `json:"instructor,omitempty"`
	Students   []UserSummary `json:"students"`
}

// StudentDashboard 学生看板：可见作业 + 已选课程
type StudentDashboard struct {
	Assignments []AssignmentSummary `json:"assignments"`
	Lessons     []LessonSummary     `json:"lessons"`
}

// InstructorDashboard 教师看板：本人开设的课程 + 布置的作业
type InstructorDashboard struct {
	Lessons     []LessonSummary     `json:"lessons"`
	Assignments []AssignmentSummary `json:"assignments"`
}

// ── 投影函数 ──

// ToUserSummary 投影用户简要视图
func ToUserSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:       u.UserID,
		Username: u.Username,
		Role:     u.Role.String(),
	}
}

// ToUserDetail 投影用户详细视图
// 关联实体由调用方按需加载并传入，嵌套层一律使用无回引的摘要视图
func ToUserDetail(u *model.User, authored, received []model.Assignment, taught, enrolled []model.Lesson) *UserDetail {
	return &UserDetail{
		ID:                 u.UserID,
		Username:           u.Username,
		Role:               u.Role.String(),
		Assignments:        ToAssignmentSummaries(authored),
		StudentAssignments: ToAssignmentSummaries(received),
		Lessons:            ToLessonSummaries(taught),
		EnrolledLessons:    ToLessonSummaries(enrolled),
		CreatedAt:          u.CreatedAt,
	}
}

// ToAssignmentSummary 投影作业摘要视图
func ToAssignmentSummary(a *model.Assignment) AssignmentSummary {
	return AssignmentSummary{
		ID:           a.AssignmentID,
		Title:        a.Title,
		Description:  a.Description,
		DueDate:      a.DueDate,
		Status:       string(a.Status),
		Grade:        a.Grade,
		Submission:   a.Submission,
		SubmittedOn:  a.SubmittedOn,
		GradedOn:     a.GradedOn,
		InstructorID: a.InstructorID,
		StudentID:    a.StudentID,
	}
}

// ToAssignmentSummaries 批量投影作业摘要
func ToAssignmentSummaries(items []model.Assignment) []AssignmentSummary {
	result := make([]AssignmentSummary, 0, len(items))
	for i := range items {
		result = append(result, ToAssignmentSummary(&items[i]))
	}
	return result
}

// ToAssignmentDetail 投影作业详细视图（关联用户已加载时嵌套其摘要）
func ToAssignmentDetail(a *model.Assignment) *AssignmentDetail {
	detail := &AssignmentDetail{AssignmentSummary: ToAssignmentSummary(a)}
	if a.Instructor != nil {
		s := ToUserSummary(a.Instructor)
		detail.Instructor = &s
	}
	if a.Student != nil {
		s := ToUserSummary(a.Student)
		detail.Student = &s
	}
	return detail
}

// ToLessonSummary 投影课程摘要视图
func ToLessonSummary(l *model.Lesson) LessonSummary {
	return LessonSummary{
		ID:           l.LessonID,
		Title:        l.Title,
		Content:      l.Content,
		Description:  l.Description,
		DueDate:      l.DueDate,
		InstructorID: l.InstructorID,
	}
}

// ToLessonSummaries 批量投影课程摘要
func ToLessonSummaries(items []model.Lesson) []LessonSummary {
	result := make([]LessonSummary, 0, len(items))
	for i := range items {
		result = append(result, ToLessonSummary(&items[i]))
	}
	return result
}

// ToLessonDetail 投影课程详细视图（含选课学生摘要）
func ToLessonDetail(l *model.Lesson) *LessonDetail {
	detail := &LessonDetail{
		LessonSummary: ToLessonSummary(l),
		Students:      make([]UserSummary, 0, len(l.Students)),
	}
	if l.Instructor != nil {
		s := ToUserSummary(l.Instructor)
		detail.Instructor = &s
	}
	for i := range l.Students {
		detail.Students = append(detail.Students, ToUserSummary(&l.Students[i]))
	}
	return detail
}
