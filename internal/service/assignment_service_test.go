package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
)

func newTestAssignmentService() (AssignmentService, *repository.Repository) {
	repo, _, _, _ := newTestRepo()
	return NewAssignmentService(repo, zap.NewNop()), repo
}

func createAssignment(t *testing.T, svc AssignmentService, instructorID string) *dto.AssignmentDetail {
	t.Helper()
	detail, err := svc.Create(context.Background(), &dto.CreateAssignmentRequest{
		Title:       "第一次作业",
		Description: "完成课后习题",
		DueDate:     time.Now().Add(7 * 24 * time.Hour),
	}, instructorID, model.RoleInstructor)
	if err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}
	return detail
}

func TestAssignmentLifecycle(t *testing.T) {
	svc, _ := newTestAssignmentService()
	ctx := context.Background()

	created := createAssignment(t, svc, "inst-1")
	if created.Status != "pending" {
		t.Fatalf("新建作业状态期望 pending，实际 %s", created.Status)
	}
	if created.Grade != nil || created.Submission != nil || created.SubmittedOn != nil || created.GradedOn != nil {
		t.Error("新建作业的提交与评分字段应全部为空")
	}

	// 学生提交：认领 + 记录提交时间
	submitted, err := svc.Submit(ctx, created.ID, "我的答案", "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("提交作业失败: %v", err)
	}
	if submitted.Status != "submitted" {
		t.Errorf("提交后状态期望 submitted，实际 %s", submitted.Status)
	}
	if submitted.StudentID == nil || *submitted.StudentID != "stu-1" {
		t.Error("提交后作业应认领到提交学生名下")
	}
	if submitted.Submission == nil || *submitted.Submission != "我的答案" {
		t.Error("提交内容未落库")
	}
	if submitted.SubmittedOn == nil {
		t.Error("提交时间未记录")
	}

	// 教师评分：终态
	graded, err := svc.Grade(ctx, created.ID, 92.5, "inst-1", model.RoleInstructor)
	if err != nil {
		t.Fatalf("评分失败: %v", err)
	}
	if graded.Status != "graded" {
		t.Errorf("评分后状态期望 graded，实际 %s", graded.Status)
	}
	if graded.Grade == nil || *graded.Grade != 92.5 {
		t.Error("分数未落库")
	}
	if graded.GradedOn == nil {
		t.Error("评分时间未记录")
	}
	// 提交信息在评分后保持不变
	if graded.Submission == nil || *graded.Submission != "我的答案" {
		t.Error("评分不应改动提交内容")
	}
}

func TestSubmitRejectsIllegalTransitions(t *testing.T) {
	svc, _ := newTestAssignmentService()
	ctx := context.Background()

	created := createAssignment(t, svc, "inst-1")
	if _, err := svc.Submit(ctx, created.ID, "第一版", "stu-1", model.RoleStudent); err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}

	// 已提交的作业拒绝覆盖提交（包括提交者本人）
	_, err := svc.Submit(ctx, created.ID, "第二版", "stu-1", model.RoleStudent)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("重复提交期望 ErrAlreadySubmitted，实际 %v", err)
	}

	// 已评分的作业同样拒绝
	if _, err := svc.Grade(ctx, created.ID, 80, "inst-1", model.RoleInstructor); err != nil {
		t.Fatalf("评分失败: %v", err)
	}
	_, err = svc.Submit(ctx, created.ID, "第三版", "stu-1", model.RoleStudent)
	if !errors.Is(err, ErrAlreadyGraded) {
		t.Errorf("向已评分作业提交期望 ErrAlreadyGraded，实际 %v", err)
	}
}

func TestGradeRejectsIllegalTransitions(t *testing.T) {
	svc, _ := newTestAssignmentService()
	ctx := context.Background()

	created := createAssignment(t, svc, "inst-1")

	// 未提交的作业不能评分
	_, err := svc.Grade(ctx, created.ID, 90, "inst-1", model.RoleInstructor)
	if !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("评阅未提交作业期望 ErrNotSubmitted，实际 %v", err)
	}

	if _, err := svc.Submit(ctx, created.ID, "答案", "stu-1", model.RoleStudent); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if _, err := svc.Grade(ctx, created.ID, 90, "inst-1", model.RoleInstructor); err != nil {
		t.Fatalf("评分失败: %v", err)
	}

	// 已评分作业不能再评分
	_, err = svc.Grade(ctx, created.ID, 95, "inst-1", model.RoleInstructor)
	if !errors.Is(err, ErrAlreadyGraded) {
		t.Errorf("重复评分期望 ErrAlreadyGraded，实际 %v", err)
	}
}

func TestGradeOwnershipEnforced(t *testing.T) {
	svc, _ := newTestAssignmentService()
	ctx := context.Background()

	created := createAssignment(t, svc, "inst-1")
	if _, err := svc.Submit(ctx, created.ID, "答案", "stu-1", model.RoleStudent); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	// 他人布置的作业不能评分
	_, err := svc.Grade(ctx, created.ID, 90, "inst-2", model.RoleInstructor)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("非布置者评分期望 ErrNotOwner，实际 %v", err)
	}

	// 学生不能评分
	_, err = svc.Grade(ctx, created.ID, 90, "stu-1", model.RoleStudent)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("学生评分期望 ErrPermissionDenied，实际 %v", err)
	}
}

func TestSubmitAddresseeEnforced(t *testing.T) {
	svc, repo := newTestAssignmentService()
	ctx := context.Background()

	// 指派给 stu-1 的作业
	target := "stu-1"
	assignment := &model.Assignment{
		Title:        "定向作业",
		Description:  "仅限指定学生",
		DueDate:      time.Now().Add(24 * time.Hour),
		Status:       model.AssignmentPending,
		InstructorID: "inst-1",
		StudentID:    &target,
	}
	if err := repo.Assignment.Create(ctx, assignment); err != nil {
		t.Fatalf("播种作业失败: %v", err)
	}

	// 其他学生提交被拒
	_, err := svc.Submit(ctx, assignment.AssignmentID, "蹭交", "stu-2", model.RoleStudent)
	if !errors.Is(err, ErrNotAddressee) {
		t.Errorf("非指派学生提交期望 ErrNotAddressee，实际 %v", err)
	}

	// 被指派学生提交成功
	if _, err := svc.Submit(ctx, assignment.AssignmentID, "按时提交", "stu-1", model.RoleStudent); err != nil {
		t.Errorf("指派学生提交失败: %v", err)
	}
}

func TestSubmitNotFound(t *testing.T) {
	svc, _ := newTestAssignmentService()
	_, err := svc.Submit(context.Background(), "missing-id", "答案", "stu-1", model.RoleStudent)
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("期望 ErrAssignmentNotFound，实际 %v", err)
	}
}

func TestListVisibleToStudent(t *testing.T) {
	svc, repo := newTestAssignmentService()
	ctx := context.Background()

	// 未认领作业 + 指派给 stu-1 的作业 + 指派给 stu-2 的作业
	createAssignment(t, svc, "inst-1")
	for _, sid := range []string{"stu-1", "stu-2"} {
		target := sid
		a := &model.Assignment{
			Title: "定向", Description: "x", DueDate: time.Now(),
			Status: model.AssignmentPending, InstructorID: "inst-1", StudentID: &target,
		}
		if err := repo.Assignment.Create(ctx, a); err != nil {
			t.Fatalf("播种作业失败: %v", err)
		}
	}

	visible, err := svc.ListVisibleToStudent(ctx, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("查询可见作业失败: %v", err)
	}
	// stu-1 应看到未认领作业和指派给自己的作业，看不到 stu-2 的
	if len(visible) != 2 {
		t.Errorf("期望可见 2 条，实际 %d", len(visible))
	}
	for _, a := range visible {
		if a.StudentID != nil && *a.StudentID != "stu-1" {
			t.Errorf("不应看到指派给他人的作业: %+v", a)
		}
	}
}

// 本人名下的作业包含已认领但未提交的，不限于已提交的
func TestListClaimedByIncludesPending(t *testing.T) {
	svc, repo := newTestAssignmentService()
	ctx := context.Background()

	// 指派给 stu-1 但尚未提交的作业
	target := "stu-1"
	pending := &model.Assignment{
		Title: "未提交", Description: "x", DueDate: time.Now(),
		Status: model.AssignmentPending, InstructorID: "inst-1", StudentID: &target,
	}
	if err := repo.Assignment.Create(ctx, pending); err != nil {
		t.Fatalf("播种作业失败: %v", err)
	}

	// stu-1 已提交的作业
	submitted := createAssignment(t, svc, "inst-1")
	if _, err := svc.Submit(ctx, submitted.ID, "答案", "stu-1", model.RoleStudent); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	// 他人名下的作业
	other := "stu-2"
	if err := repo.Assignment.Create(ctx, &model.Assignment{
		Title: "他人的", Description: "x", DueDate: time.Now(),
		Status: model.AssignmentPending, InstructorID: "inst-1", StudentID: &other,
	}); err != nil {
		t.Fatalf("播种作业失败: %v", err)
	}

	claimed, err := svc.ListClaimedBy(ctx, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("查询名下作业失败: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("期望名下 2 条（含未提交的），实际 %d", len(claimed))
	}
	statuses := map[string]bool{}
	for _, a := range claimed {
		if a.StudentID == nil || *a.StudentID != "stu-1" {
			t.Errorf("出现他人名下的作业: %+v", a)
		}
		statuses[a.Status] = true
	}
	if !statuses["pending"] || !statuses["submitted"] {
		t.Errorf("名下作业应同时包含未提交与已提交的: %v", statuses)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	svc, _ := newTestAssignmentService()
	_, err := svc.ListAll(context.Background(), model.RoleStudent)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("学生读全量作业期望 ErrPermissionDenied，实际 %v", err)
	}
	if _, err := svc.ListAll(context.Background(), model.RoleAdmin); err != nil {
		t.Errorf("管理员读全量作业失败: %v", err)
	}
}

func TestCreateRequiresInstructor(t *testing.T) {
	svc, _ := newTestAssignmentService()
	_, err := svc.Create(context.Background(), &dto.CreateAssignmentRequest{
		Title: "越权", Description: "x", DueDate: time.Now(),
	}, "stu-1", model.RoleStudent)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("学生创建作业期望 ErrPermissionDenied，实际 %v", err)
	}
}
