package model

import "time"

// AssignmentStatus 作业生命周期状态
// pending → submitted → graded，只进不退
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentSubmitted AssignmentStatus = "submitted"
	AssignmentGraded    AssignmentStatus = "graded"
)

// Assignment 作业表 — 对应 assignments
// instructor_id 创建后不可变；student_id 在提交前可为空（面向全体的未认领作业）
type Assignment struct {
	AssignmentID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	Title        string           `gorm:"type:varchar(100);not null"                     json:"title"`
	Description  string           `gorm:"type:text;not null"                             json:"description"`
	DueDate      time.Time        `gorm:"not null"                                       json:"due_date"`
	Status       AssignmentStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Grade        *float64         `json:"grade,omitempty"`
	Submission   *string          `gorm:"type:text" json:"submission,omitempty"`
	SubmittedOn  *time.Time       `json:"submitted_on,omitempty"`
	GradedOn     *time.Time       `json:"graded_on,omitempty"`

	InstructorID string  `gorm:"type:uuid;not null" json:"instructor_id"`
	StudentID    *string `gorm:"type:uuid"          json:"student_id,omitempty"`

	// 关联
	Instructor *User `gorm:"foreignKey:InstructorID;references:UserID" json:"instructor,omitempty"`
	Student    *User `gorm:"foreignKey:StudentID;references:UserID"    json:"student,omitempty"`

	BaseModel
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }
