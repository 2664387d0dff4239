package dto

import "time"

// ── 课程模块 DTO ──

// CreateLessonRequest 创建课程请求
type CreateLessonRequest struct {
	Title       string     `json:"title"   binding:"required,max=100"`
	Content     string     `json:"content" binding:"required"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}
