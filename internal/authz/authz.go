// Package authz 提供纯函数形式的授权闸门。
// 每个受保护的操作都必须在访问存储层之前经过 Authorize 判定一次；
// 闸门本身不做任何 I/O，角色 × 操作 × 归属关系完全决定结果。
package authz

import "gradebook/backend/internal/model"

// Operation 受闸门保护的操作
type Operation string

const (
	// 管理员：用户 CRUD 与全量只读
	OpUserList          Operation = "user.list"
	OpUserCreate        Operation = "user.create"
	OpUserRead          Operation = "user.read"
	OpUserUpdate        Operation = "user.update"
	OpUserDelete        Operation = "user.delete"
	OpUserImport        Operation = "user.import"
	OpAssignmentReadAll Operation = "assignment.read_all"
	OpLessonReadAll     Operation = "lesson.read_all"

	// 教师：创建与本人名下资源的读取/评分
	OpLessonCreate      Operation = "lesson.create"
	OpAssignmentCreate  Operation = "assignment.create"
	OpLessonReadOwn     Operation = "lesson.read_own"
	OpAssignmentReadOwn Operation = "assignment.read_own"
	OpAssignmentGrade   Operation = "assignment.grade"

	// 学生：未认领或指派给本人的作业、本人的选课、课程目录浏览
	OpAssignmentReadTargeted Operation = "assignment.read_targeted"
	OpAssignmentSubmit       Operation = "assignment.submit"
	OpLessonEnroll           Operation = "lesson.enroll"
	OpLessonUnenroll         Operation = "lesson.unenroll"
	OpLessonReadEnrolled     Operation = "lesson.read_enrolled"
	OpLessonBrowse           Operation = "lesson.browse"
)

// Reason 拒绝原因
type Reason string

const (
	ReasonUnauthorized Reason = "unauthorized"
	ReasonNotOwner     Reason = "not_owner"
	ReasonSelfDeletion Reason = "self_deletion"
	ReasonNotAddressee Reason = "not_addressee"
)

// Decision 闸门判定结果
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Authorize 判定 role 是否允许对目标执行 op。
// resourceOwnerID 的含义取决于操作：
//   - 用户 CRUD：目标用户 ID
//   - 教师资源操作：资源的 instructor_id
//   - 学生作业操作：作业的 student_id（未认领时为空串）
//   - 选课操作：被操作的学生 ID
func Authorize(role model.Role, op Operation, resourceOwnerID, callerID string) Decision {
	switch op {
	case OpUserList, OpUserCreate, OpUserRead, OpUserUpdate, OpUserImport,
		OpAssignmentReadAll, OpLessonReadAll:
		if role != model.RoleAdmin {
			return deny(ReasonUnauthorized)
		}
		return allow()

	case OpUserDelete:
		if role != model.RoleAdmin {
			return deny(ReasonUnauthorized)
		}
		// 管理员不能删除自己的账号
		if resourceOwnerID == callerID {
			return deny(ReasonSelfDeletion)
		}
		return allow()

	case OpLessonCreate, OpAssignmentCreate:
		if role != model.RoleInstructor {
			return deny(ReasonUnauthorized)
		}
		return allow()

	case OpLessonReadOwn, OpAssignmentReadOwn, OpAssignmentGrade:
		if role != model.RoleInstructor {
			return deny(ReasonUnauthorized)
		}
		if resourceOwnerID != callerID {
			return deny(ReasonNotOwner)
		}
		return allow()

	case OpAssignmentReadTargeted, OpAssignmentSubmit:
		if role != model.RoleStudent {
			return deny(ReasonUnauthorized)
		}
		// 未认领（广播）作业对所有学生可见可提交
		if resourceOwnerID != "" && resourceOwnerID != callerID {
			return deny(ReasonNotAddressee)
		}
		return allow()

	case OpLessonBrowse:
		// 课程目录对学生开放，选课前需要浏览全部课程
		if role != model.RoleStudent {
			return deny(ReasonUnauthorized)
		}
		return allow()

	case OpLessonEnroll, OpLessonUnenroll, OpLessonReadEnrolled:
		if role != model.RoleStudent {
			return deny(ReasonUnauthorized)
		}
		// 只能操作本人的选课
		if resourceOwnerID != callerID {
			return deny(ReasonNotOwner)
		}
		return allow()
	}

	// 未知操作一律拒绝，保证闸门全覆盖
	return deny(ReasonUnauthorized)
}
