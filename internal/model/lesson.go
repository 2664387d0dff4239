package model

import "time"

// Lesson 课程表 — 对应 lessons
// 与学生的多对多选课关系通过 lesson_enrollments 连接表表达，
// 连接表除 (student_id, lesson_id) 对外无其他载荷
type Lesson struct {
	LessonID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lesson_id"`
	Title       string     `gorm:"type:varchar(100);not null"                     json:"title"`
	Content     string     `gorm:"type:text;not null"                             json:"content"`
	Description *string    `gorm:"type:text"                                      json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	InstructorID string `gorm:"type:uuid;not null" json:"instructor_id"`

	// 关联
	Instructor *User  `gorm:"foreignKey:InstructorID;references:UserID" json:"instructor,omitempty"`
	Students   []User `gorm:"many2many:lesson_enrollments;foreignKey:LessonID;joinForeignKey:lesson_id;references:UserID;joinReferences:student_id" json:"students,omitempty"`

	BaseModel
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }
