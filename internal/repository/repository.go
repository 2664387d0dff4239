package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Assignment AssignmentRepository
	Lesson     LessonRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Assignment: NewAssignmentRepo(db),
		Lesson:     NewLessonRepo(db),
	}
}

// BeginTx 开启事务，返回事务句柄
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 聚合
// 事务内的所有写操作要么全部提交，要么全部回滚
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}
