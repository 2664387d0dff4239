package handler

import "gradebook/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Admin      *AdminHandler
	Instructor *InstructorHandler
	Student    *StudentHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Admin:      NewAdminHandler(svc.User, svc.Assignment, svc.Lesson),
		Instructor: NewInstructorHandler(svc.Assignment, svc.Lesson),
		Student:    NewStudentHandler(svc.Assignment, svc.Lesson),
	}
}
