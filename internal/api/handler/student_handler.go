package handler

import (
	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	assignmentSvc service.AssignmentService
	lessonSvc     service.LessonService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(assignmentSvc service.AssignmentService, lessonSvc service.LessonService) *StudentHandler {
	return &StudentHandler{
		assignmentSvc: assignmentSvc,
		lessonSvc:     lessonSvc,
	}
}

// Dashboard 学生看板：可见作业（未认领 + 指派给本人） + 已选课程
// GET /api/student/dashboard
func (h *StudentHandler) Dashboard(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentSvc.ListVisibleToStudent(c.Request.Context(), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	lessons, err := h.lessonSvc.ListEnrolled(c.Request.Context(), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "", dto.StudentDashboard{
		Assignments: assignments,
		Lessons:     lessons,
	})
}

// ListLessons 课程目录（选课入口）
// GET /api/student/lessons
func (h *StudentHandler) ListLessons(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	lessons, err := h.lessonSvc.Browse(c.Request.Context(), role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", lessons)
}

// MyAssignments 本人名下的作业（已认领/已提交）
// GET /api/student/my-assignments
func (h *StudentHandler) MyAssignments(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	assignments, err := h.assignmentSvc.ListClaimedBy(c.Request.Context(), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.OK(c, "", assignments)
}

// SubmitAssignment 提交作业
// POST /api/student/assignment/:id/submit
func (h *StudentHandler) SubmitAssignment(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.SubmitAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Submission content is required")
		return
	}

	assignment, err := h.assignmentSvc.Submit(c.Request.Context(), c.Param("id"), req.Submission, userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Assignment submitted successfully", assignment)
}

// EnrollLesson 选课（幂等）
// POST /api/student/lesson/:id/enroll
func (h *StudentHandler) EnrollLesson(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	lesson, err := h.lessonSvc.Enroll(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Enrolled successfully", lesson)
}

// UnenrollLesson 退课（幂等）
// POST /api/student/lesson/:id/unenroll
func (h *StudentHandler) UnenrollLesson(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	lesson, err := h.lessonSvc.Unenroll(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.OK(c, "Unenrolled successfully", lesson)
}
