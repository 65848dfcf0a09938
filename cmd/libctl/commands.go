package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ptit-library/internal/dto"
	"ptit-library/internal/model"
	"ptit-library/internal/repository"
	"ptit-library/internal/service"
	"ptit-library/pkg/database"
)

// ── migrate ──

func newMigrateCmd(a *app) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移（--down N 回滚 N 步）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			defer a.close()

			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			if down > 0 {
				return database.RollbackMigrations(sqlDB, down, a.logger)
			}
			if err := database.RunMigrations(sqlDB, a.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
			return nil
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "回滚的迁移步数")
	return cmd
}

// ── seed-collections ──

func newSeedCollectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-collections",
		Short: "写入默认的集合与分类（可重复执行）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			defer a.close()

			svc := service.NewService(a.cfg, repository.NewRepository(a.db), nil, nil, nil, a.logger)
			result, err := svc.Catalog.SeedCollections(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "新增集合 %d 个，分类 %d 个\n",
				result.CollectionsCreated, result.SubCollectionsCreated)
			return nil
		},
	}
}

// ── create-user ──

func newCreateUserCmd(a *app) *cobra.Command {
	req := dto.CreateUserRequest{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "创建账号（密码以 bcrypt 存储）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Username == "" || req.Password == "" {
				return errors.New("--username 与 --password 必填")
			}
			if req.Name == "" {
				req.Name = req.Username
			}
			if err := a.connect(); err != nil {
				return err
			}
			defer a.close()

			svc := service.NewService(a.cfg, repository.NewRepository(a.db), nil, nil, nil, a.logger)
			user, err := svc.User.CreateUser(cmd.Context(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已创建 %s（%s），ID %s\n", user.Username, user.Role, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "学号 / 工号")
	f.StringVar(&req.Password, "password", "", "初始密码")
	f.StringVar(&req.Name, "name", "", "姓名（默认同学号）")
	f.StringVar(&req.Email, "email", "", "邮箱")
	f.StringVar(&req.Role, "role", model.RoleStudent, "角色：student | staff | admin")
	return cmd
}
