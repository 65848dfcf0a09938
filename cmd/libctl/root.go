package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ptit-library/config"
	"ptit-library/pkg/database"
	applogger "ptit-library/pkg/logger"
)

type app struct {
	configPath string

	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "PTIT 图书馆服务运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCollectionsCmd(a),
		newCreateUserCmd(a),
	)
	return root
}

// connect 加载配置并连接数据库，子命令按需调用
func (a *app) connect() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	a.cfg, a.logger, a.db = cfg, logger, db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
