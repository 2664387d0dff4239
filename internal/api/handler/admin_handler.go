package handler

import (
	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

// AdminHandler 管理员模块 HTTP 处理器
// 用户 CRUD、批量导入，以及作业/课程的全量只读
type AdminHandler struct {
	userSvc       service.UserService
	assignmentSvc service.AssignmentService
	lessonSvc     service.LessonService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(userSvc service.UserService, assignmentSvc service.AssignmentService, lessonSvc service.LessonService) *AdminHandler {
	return &AdminHandler{
		userSvc:       userSvc,
		assignmentSvc: assignmentSvc,
		lessonSvc:     lessonSvc,
	}
}

// ListUsers 列出全部用户
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	users, err := h.userSvc.List(c.Request.Context(), role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", users)
}

// CreateUser 创建用户
// POST /api/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Username, password and role are required")
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, "User created successfully", user)
}

// GetUser 查询单个用户（含关联实体摘要）
// GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	detail, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", detail)
}

// UpdateUser 更新用户（仅更新提交的字段）
// PUT /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "User updated successfully", user)
}

// DeleteUser 删除用户（管理员不能删除自己）
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), callerID, role); err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "User deleted successfully", nil)
}

// ImportUsers 从 Excel 文件批量导入用户
// POST /api/admin/users/import
func (h *AdminHandler) ImportUsers(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Upload file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Unable to read upload file")
		return
	}
	defer f.Close()

	rows, err := h.userSvc.ParseImportFile(f)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userSvc.ImportUsers(c.Request.Context(), rows, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Import completed", result)
}

// ListAssignments 全量作业只读
// GET /api/admin/assignments
func (h *AdminHandler) ListAssignments(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentSvc.ListAll(c.Request.Context(), role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", assignments)
}

// ListLessons 全量课程只读
// GET /api/admin/lessons
func (h *AdminHandler) ListLessons(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	lessons, err := h.lessonSvc.ListAll(c.Request.Context(), role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", lessons)
}
