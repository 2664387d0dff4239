package errors

import (
	"errors"

	"gorm.io/gorm"
)

// IsUniqueViolation 判断错误是否为数据库唯一约束冲突
// 依赖 gorm 的 TranslateError 将驱动错误归一为 ErrDuplicatedKey
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
