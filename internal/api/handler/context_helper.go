package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/api/middleware"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		response.Unauthorized(c, "Missing authentication token")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, "Missing authentication token")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get(middleware.ContextRole)
	if !exists {
		response.Unauthorized(c, "Missing authentication token")
		return "", false
	}
	r, ok := v.(model.Role)
	if !ok || r == "" {
		response.Unauthorized(c, "Missing authentication token")
		return "", false
	}
	return r, true
}

// writeServiceError 将 service 层哨兵错误译为 HTTP 响应
// 认证模块的专有错误（登录凭证、旧密码）由各 handler 先行处理
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, "Assignment not found")
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, "Lesson not found")
	case errors.Is(err, service.ErrSelfDeletion):
		response.BadRequest(c, "Cannot delete your own account")
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotAddressee):
		response.Forbidden(c, "Unauthorized access")
	case errors.Is(err, service.ErrUsernameExists):
		response.BadRequest(c, "Username already exists")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, "Role must be one of ADMIN, INSTRUCTOR, STUDENT")
	case errors.Is(err, service.ErrWeakPassword):
		response.BadRequest(c, "Password does not meet the strength policy")
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.BadRequest(c, "Assignment has already been submitted")
	case errors.Is(err, service.ErrNotSubmitted):
		response.BadRequest(c, "Assignment has not been submitted yet")
	case errors.Is(err, service.ErrAlreadyGraded):
		response.BadRequest(c, "Assignment has already been graded")
	default:
		response.InternalError(c)
	}
}
