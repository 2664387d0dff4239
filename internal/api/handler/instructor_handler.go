package handler

import (
	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

// InstructorHandler 教师模块 HTTP 处理器
type InstructorHandler struct {
	assignmentSvc service.AssignmentService
	lessonSvc     service.LessonService
}

// NewInstructorHandler 创建 InstructorHandler
func NewInstructorHandler(assignmentSvc service.AssignmentService, lessonSvc service.LessonService) *InstructorHandler {
	return &InstructorHandler{
		assignmentSvc: assignmentSvc,
		lessonSvc:     lessonSvc,
	}
}

// Dashboard 教师看板：本人开设的课程 + 布置的作业
// GET /api/instructor/dashboard
func (h *InstructorHandler) Dashboard(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	lessons, err := h.lessonSvc.ListForInstructor(c.Request.Context(), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	assignments, err := h.assignmentSvc.ListForInstructor(c.Request.Context(), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "", dto.InstructorDashboard{
		Lessons:     lessons,
		Assignments: assignments,
	})
}

// ListLessons 本人开设的课程
// GET /api/instructor/lessons
func (h *InstructorHandler) ListLessons(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	lessons, err := h.lessonSvc.ListForInstructor(c.Request.Context(), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", lessons)
}

// CreateLesson 开设课程
// POST /api/instructor/lesson
func (h *InstructorHandler) CreateLesson(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Title and content are required")
		return
	}

	lesson, err := h.lessonSvc.Create(c.Request.Context(), &req, userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, "Lesson created successfully", lesson)
}

// CreateAssignment 布置作业（未指派学生，面向全体）
// POST /api/instructor/assignment
func (h *InstructorHandler) CreateAssignment(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Title, description and due date are required")
		return
	}

	assignment, err := h.assignmentSvc.Create(c.Request.Context(), &req, userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, "Assignment created successfully", assignment)
}

// GradeAssignment 为已提交的作业评分
// PUT /api/instructor/assignment/:id/grade
func (h *InstructorHandler) GradeAssignment(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.GradeAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Grade is required")
		return
	}

	assignment, err := h.assignmentSvc.Grade(c.Request.Context(), c.Param("id"), *req.Grade, userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Assignment graded successfully", assignment)
}
