package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/api/middleware"
	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/service"
	"gradebook/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.LoginResponse
	loginErr      error
	currentResult *dto.UserDetail
	currentErr    error
	changePassErr error
	logoutErr     error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.LoginResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserDetail, error) {
	return m.currentResult, m.currentErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string, _ *time.Time) error {
	return m.logoutErr
}

// ── Mock UserService ──

type mockUserService struct {
	createResult *dto.UserSummary
	createErr    error
	getResult    *dto.UserDetail
	getErr       error
	listResult   []dto.UserSummary
	listErr      error
	updateResult *dto.UserSummary
	updateErr    error
	deleteErr    error
	importRows   []service.ImportUserRow
	parseErr     error
	importResult *dto.ImportUserResponse
	importErr    error
}

func (m *mockUserService) Create(_ context.Context, _ *dto.CreateUserRequest, _ model.Role) (*dto.UserSummary, error) {
	return m.createResult, m.createErr
}
func (m *mockUserService) GetByID(_ context.Context, _ string, _ model.Role) (*dto.UserDetail, error) {
	return m.getResult, m.getErr
}
func (m *mockUserService) List(_ context.Context, _ model.Role) ([]dto.UserSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockUserService) Update(_ context.Context, _ string, _ *dto.UpdateUserRequest, _ model.Role) (*dto.UserSummary, error) {
	return m.updateResult, m.updateErr
}
func (m *mockUserService) Delete(_ context.Context, _, _ string, _ model.Role) error {
	return m.deleteErr
}
func (m *mockUserService) ParseImportFile(_ io.Reader) ([]service.ImportUserRow, error) {
	return m.importRows, m.parseErr
}
func (m *mockUserService) ImportUsers(_ context.Context, _ []service.ImportUserRow, _ model.Role) (*dto.ImportUserResponse, error) {
	return m.importResult, m.importErr
}

// ── Mock AssignmentService ──

type mockAssignmentService struct {
	createResult *dto.AssignmentDetail
	createErr    error
	submitResult *dto.AssignmentDetail
	submitErr    error
	gradeResult  *dto.AssignmentDetail
	gradeErr     error
	listResult   []dto.AssignmentSummary
	listErr      error
}

func (m *mockAssignmentService) Create(_ context.Context, _ *dto.CreateAssignmentRequest, _ string, _ model.Role) (*dto.AssignmentDetail, error) {
	return m.createResult, m.createErr
}
func (m *mockAssignmentService) Submit(_ context.Context, _, _, _ string, _ model.Role) (*dto.AssignmentDetail, error) {
	return m.submitResult, m.submitErr
}
func (m *mockAssignmentService) Grade(_ context.Context, _ string, _ float64, _ string, _ model.Role) (*dto.AssignmentDetail, error) {
	return m.gradeResult, m.gradeErr
}
func (m *mockAssignmentService) ListAll(_ context.Context, _ model.Role) ([]dto.AssignmentSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockAssignmentService) ListForInstructor(_ context.Context, _ string, _ model.Role) ([]dto.AssignmentSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockAssignmentService) ListVisibleToStudent(_ context.Context, _ string, _ model.Role) ([]dto.AssignmentSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockAssignmentService) ListClaimedBy(_ context.Context, _ string, _ model.Role) ([]dto.AssignmentSummary, error) {
	return m.listResult, m.listErr
}

// ── Mock LessonService ──

type mockLessonService struct {
	createResult *dto.LessonDetail
	createErr    error
	getResult    *dto.LessonDetail
	getErr       error
	listResult   []dto.LessonSummary
	listErr      error
	enrollResult *dto.LessonDetail
	enrollErr    error
}

func (m *mockLessonService) Create(_ context.Context, _ *dto.CreateLessonRequest, _ string, _ model.Role) (*dto.LessonDetail, error) {
	return m.createResult, m.createErr
}
func (m *mockLessonService) GetByID(_ context.Context, _ string) (*dto.LessonDetail, error) {
	return m.getResult, m.getErr
}
func (m *mockLessonService) ListAll(_ context.Context, _ model.Role) ([]dto.LessonSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockLessonService) Browse(_ context.Context, _ model.Role) ([]dto.LessonSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockLessonService) ListForInstructor(_ context.Context, _ string, _ model.Role) ([]dto.LessonSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockLessonService) ListEnrolled(_ context.Context, _ string, _ model.Role) ([]dto.LessonSummary, error) {
	return m.listResult, m.listErr
}
func (m *mockLessonService) Enroll(_ context.Context, _, _ string, _ model.Role) (*dto.LessonDetail, error) {
	return m.enrollResult, m.enrollErr
}
func (m *mockLessonService) Unenroll(_ context.Context, _, _ string, _ model.Role) (*dto.LessonDetail, error) {
	return m.enrollResult, m.enrollErr
}

// ═══════════════════════════════════════════════════════════
// 测试工具
// ═══════════════════════════════════════════════════════════

// injectIdentity 模拟 JWT 中间件注入的上下文
func injectIdentity(userID string, role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Set(middleware.ContextTokenJTI, "test-jti")
		c.Next()
	}
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v\n%s", err, w.Body.String())
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// 认证模块
// ═══════════════════════════════════════════════════════════

func TestLoginHandler(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.LoginResponse{
			Token: "test-token",
			User:  dto.UserSummary{ID: "u-1", Username: "alice", Role: "STUDENT"},
		},
	}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	resp := parseEnvelope(t, w)
	if resp.Status != "success" {
		t.Errorf("期望 status=success，实际 %s", resp.Status)
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "bad"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("期望 401，实际 %d", w.Code)
	}
	resp := parseEnvelope(t, w)
	if resp.Status != "error" || resp.Message != "Invalid username or password" {
		t.Errorf("错误响应不匹配: %+v", resp)
	}
}

func TestLoginHandlerMissingFields(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺字段期望 400，实际 %d", w.Code)
	}
}

func TestVerifyWithoutIdentity(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	// 未经过 JWT 中间件注入时应返回 401
	r := gin.New()
	r.GET("/api/auth/verify", h.Verify)

	w := doJSON(r, http.MethodGet, "/api/auth/verify", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestResetPasswordWrongOld(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{changePassErr: service.ErrInvalidCredentials})

	r := gin.New()
	r.POST("/api/auth/reset-password", injectIdentity("u-1", model.RoleStudent), h.ResetPassword)

	w := doJSON(r, http.MethodPost, "/api/auth/reset-password",
		gin.H{"old_password": "bad", "new_password": "NewSecret@456"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("旧密码错误期望 401，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 管理员模块
// ═══════════════════════════════════════════════════════════

func TestDeleteUserSelfDeletion(t *testing.T) {
	h := NewAdminHandler(&mockUserService{deleteErr: service.ErrSelfDeletion}, &mockAssignmentService{}, &mockLessonService{})

	r := gin.New()
	r.DELETE("/api/admin/users/:id", injectIdentity("admin-1", model.RoleAdmin), h.DeleteUser)

	w := doJSON(r, http.MethodDelete, "/api/admin/users/admin-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("自删期望 400，实际 %d", w.Code)
	}
	resp := parseEnvelope(t, w)
	if resp.Message != "Cannot delete your own account" {
		t.Errorf("错误信息不匹配: %s", resp.Message)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	h := NewAdminHandler(&mockUserService{createErr: service.ErrUsernameExists}, &mockAssignmentService{}, &mockLessonService{})

	r := gin.New()
	r.POST("/api/admin/users", injectIdentity("admin-1", model.RoleAdmin), h.CreateUser)

	w := doJSON(r, http.MethodPost, "/api/admin/users",
		gin.H{"username": "dup", "password": "Pw@12345", "role": "STUDENT"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("重名期望 400，实际 %d", w.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	h := NewAdminHandler(&mockUserService{getErr: service.ErrUserNotFound}, &mockAssignmentService{}, &mockLessonService{})

	r := gin.New()
	r.GET("/api/admin/users/:id", injectIdentity("admin-1", model.RoleAdmin), h.GetUser)

	w := doJSON(r, http.MethodGet, "/api/admin/users/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 教师模块
// ═══════════════════════════════════════════════════════════

func TestGradeAssignmentHandler(t *testing.T) {
	tests := []struct {
		name     string
		gradeErr error
		wantCode int
	}{
		{"评分成功", nil, http.StatusOK},
		{"非布置者", service.ErrNotOwner, http.StatusForbidden},
		{"未提交", service.ErrNotSubmitted, http.StatusBadRequest},
		{"已评分", service.ErrAlreadyGraded, http.StatusBadRequest},
		{"作业不存在", service.ErrAssignmentNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAssignmentService{gradeErr: tt.gradeErr}
			if tt.gradeErr == nil {
				mock.gradeResult = &dto.AssignmentDetail{}
			}
			h := NewInstructorHandler(mock, &mockLessonService{})

			r := gin.New()
			r.PUT("/api/instructor/assignment/:id/grade",
				injectIdentity("inst-1", model.RoleInstructor), h.GradeAssignment)

			w := doJSON(r, http.MethodPut, "/api/instructor/assignment/a-1/grade", gin.H{"grade": 88.5})
			if w.Code != tt.wantCode {
				t.Errorf("期望 %d，实际 %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestGradeAssignmentMissingGrade(t *testing.T) {
	h := NewInstructorHandler(&mockAssignmentService{}, &mockLessonService{})

	r := gin.New()
	r.PUT("/api/instructor/assignment/:id/grade",
		injectIdentity("inst-1", model.RoleInstructor), h.GradeAssignment)

	// grade 字段缺失（required 指针绑定）
	w := doJSON(r, http.MethodPut, "/api/instructor/assignment/a-1/grade", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺分数期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 学生模块
// ═══════════════════════════════════════════════════════════

func TestSubmitAssignmentHandler(t *testing.T) {
	tests := []struct {
		name      string
		submitErr error
		wantCode  int
	}{
		{"提交成功", nil, http.StatusOK},
		{"重复提交", service.ErrAlreadySubmitted, http.StatusBadRequest},
		{"指派给他人", service.ErrNotAddressee, http.StatusForbidden},
		{"作业不存在", service.ErrAssignmentNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAssignmentService{submitErr: tt.submitErr}
			if tt.submitErr == nil {
				mock.submitResult = &dto.AssignmentDetail{}
			}
			h := NewStudentHandler(mock, &mockLessonService{})

			r := gin.New()
			r.POST("/api/student/assignment/:id/submit",
				injectIdentity("stu-1", model.RoleStudent), h.SubmitAssignment)

			w := doJSON(r, http.MethodPost, "/api/student/assignment/a-1/submit", gin.H{"submission": "答案"})
			if w.Code != tt.wantCode {
				t.Errorf("期望 %d，实际 %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestStudentDashboard(t *testing.T) {
	h := NewStudentHandler(
		&mockAssignmentService{listResult: []dto.AssignmentSummary{{ID: "a-1"}}},
		&mockLessonService{listResult: []dto.LessonSummary{{ID: "l-1"}}},
	)

	r := gin.New()
	r.GET("/api/student/dashboard", injectIdentity("stu-1", model.RoleStudent), h.Dashboard)

	w := doJSON(r, http.MethodGet, "/api/student/dashboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}

	var resp struct {
		Status string               `json:"status"`
		Data   dto.StudentDashboard `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(resp.Data.Assignments) != 1 || len(resp.Data.Lessons) != 1 {
		t.Errorf("看板内容不匹配: %+v", resp.Data)
	}
}

func TestEnrollLessonNotFound(t *testing.T) {
	h := NewStudentHandler(&mockAssignmentService{}, &mockLessonService{enrollErr: service.ErrLessonNotFound})

	r := gin.New()
	r.POST("/api/student/lesson/:id/enroll", injectIdentity("stu-1", model.RoleStudent), h.EnrollLesson)

	w := doJSON(r, http.MethodPost, "/api/student/lesson/missing/enroll", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}
