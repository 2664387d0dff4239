package model

import "strings"

// Role 用户角色，闭合枚举
// 原系统将角色存成自由字符串并在不同路径上大小写不一致地比较，
// 这里统一在绑定边界归一化一次，之后只与枚举常量比较
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleStudent    Role = "STUDENT"
)

// ParseRole 将外部输入归一化为角色枚举，未知角色返回 false
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleInstructor:
		return RoleInstructor, true
	case RoleStudent:
		return RoleStudent, true
	}
	return "", false
}

// String 返回角色的字符串值
func (r Role) String() string { return string(r) }

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(200);not null;uniqueIndex:uq_users_username" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null"                      json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 管理员判定
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsInstructor 教师判定
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }

// IsStudent 学生判定
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
