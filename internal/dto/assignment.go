package dto

import "time"

// ── 作业模块 DTO ──

// CreateAssignmentRequest 创建作业请求
type CreateAssignmentRequest struct {
	Title       string    `json:"title"       binding:"required,max=100"`
	Description string    `json:"description" binding:"required"`
	DueDate     time.Time `json:"due_date"    binding:"required"`
}

// SubmitAssignmentRequest 提交作业请求
type SubmitAssignmentRequest struct {
	Submission string `json:"submission" binding:"required"`
}

// GradeAssignmentRequest 评分请求
type GradeAssignmentRequest struct {
	Grade *float64 `json:"grade" binding:"required"`
}
