package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/api/middleware"
	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Username and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// 用户不存在与密码错误刻意不作区分
			response.Unauthorized(c, "Invalid username or password")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, "Login successful", result)
}

// Verify 校验当前 Token 并返回调用者信息
// GET /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	detail, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Token is valid", detail)
}

// Logout 用户登出：Token 加入撤销名单（Redis 可用时）
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	jti := c.GetString(middleware.ContextTokenJTI)
	var expiresAt *time.Time
	if v, exists := c.Get(middleware.ContextTokenExp); exists {
		if t, ok := v.(time.Time); ok {
			expiresAt = &t
		}
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, expiresAt); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, "Logout successful", nil)
}

// ResetPassword 修改当前用户密码
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Old password and new password are required")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "Invalid old password")
			return
		}
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Password updated successfully", nil)
}
