package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// 迁移脚本随二进制内嵌，部署时不需要单独分发 SQL 文件
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 把数据库结构升级到最新版本
// 幂等：结构已是最新时不产生任何变更
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取内嵌迁移脚本失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("构建 postgres 迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("装配迁移实例失败: %w", err)
	}

	err = m.Up()
	upToDate := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !upToDate {
		return fmt.Errorf("应用迁移失败: %w", err)
	}

	version, dirty, verr := m.Version()
	switch {
	case verr != nil:
		logger.Warn("读取迁移版本失败", zap.Error(verr))
	case dirty:
		logger.Warn("迁移版本处于 dirty 状态，需要人工介入", zap.Uint("version", version))
	case upToDate:
		logger.Info("数据库结构已是最新", zap.Uint("version", version))
	default:
		logger.Info("数据库结构升级完成", zap.Uint("version", version))
	}

	return nil
}
