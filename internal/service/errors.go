package service

import (
	"errors"

	"gradebook/backend/internal/authz"
)

// ── 跨模块业务错误 ──

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrLessonNotFound     = errors.New("lesson not found")

	// 授权闸门的拒绝结果
	ErrPermissionDenied = errors.New("unauthorized access")
	ErrNotOwner         = errors.New("not the owner of this resource")
	ErrNotAddressee     = errors.New("assignment is addressed to another student")
	ErrSelfDeletion     = errors.New("cannot delete your own account")
)

// denyError 将闸门拒绝原因映射为业务错误
// 所有映射结果在 HTTP 层统一译为 403（SelfDeletion 按原系统约定译为 400）
func denyError(d authz.Decision) error {
	switch d.Reason {
	case authz.ReasonNotOwner:
		return ErrNotOwner
	case authz.ReasonNotAddressee:
		return ErrNotAddressee
	case authz.ReasonSelfDeletion:
		return ErrSelfDeletion
	default:
		return ErrPermissionDenied
	}
}
