package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ptit-library/internal/model"
)

// EntryLogFilter 签到历史筛选条件（按 log_date 闭区间）
type EntryLogFilter struct {
	UserID string
	Start  *time.Time
	End    *time.Time
}

// MonthCount 按月聚合的签到次数，Month 形如 "2024-05"
type MonthCount struct {
	Month string
	Total int64
}

// UserCount 按用户聚合的签到次数
type UserCount struct {
	UserID   string
	Username string
	Total    int64
}

// EntryLogRepository 签到记录数据访问接口
type EntryLogRepository interface {
	// GetOrCreateForUpdate 取得 (user, shift, day) 唯一记录并加行锁，不存在时先插入；须在事务内调用
	GetOrCreateForUpdate(ctx context.Context, userID string, shift model.Shift, logDate time.Time) (*model.EntryLog, error)
	// MarkCheckIn 仅在 check_in 为空时写入，返回是否写入
	MarkCheckIn(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkCheckOut 仅在已签到且 check_out 为空时写入，返回是否写入
	MarkCheckOut(ctx context.Context, id string, at time.Time) (bool, error)
	List(ctx context.Context, filter EntryLogFilter, offset, limit int) ([]model.EntryLog, int64, error)
	// MonthlyCounts 返回最近 months 个有记录的月份，按月份倒序
	MonthlyCounts(ctx context.Context, userID string, months int) ([]MonthCount, error)
	TopUsers(ctx context.Context, limit int) ([]UserCount, error)
}

type entryLogRepo struct {
	db *gorm.DB
}

// NewEntryLogRepo 创建 EntryLogRepository 实例
func NewEntryLogRepo(db *gorm.DB) EntryLogRepository {
	return &entryLogRepo{db: db}
}

func (r *entryLogRepo) GetOrCreateForUpdate(ctx context.Context, userID string, shift model.Shift, logDate time.Time) (*model.EntryLog, error) {
	db := r.db.WithContext(ctx)

	seed := model.EntryLog{
		UserID:  userID,
		Shift:   shift,
		LogDate: model.DateOf(logDate),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "shift"}, {Name: "log_date"}},
		DoNothing: true,
	}).Create(&seed).Error
	if err != nil {
		return nil, err
	}

	var log model.EntryLog
	err = db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND shift = ? AND log_date = ?", userID, shift, model.DateOf(logDate)).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *entryLogRepo) MarkCheckIn(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.EntryLog{}).
		Where("entry_log_id = ? AND check_in IS NULL", id).
		Update("check_in", at)
	return result.RowsAffected > 0, result.Error
}

func (r *entryLogRepo) MarkCheckOut(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.EntryLog{}).
		Where("entry_log_id = ? AND check_in IS NOT NULL AND check_out IS NULL", id).
		Update("check_out", at)
	return result.RowsAffected > 0, result.Error
}

func (r *entryLogRepo) List(ctx context.Context, filter EntryLogFilter, offset, limit int) ([]model.EntryLog, int64, error) {
	var logs []model.EntryLog
	var total int64

	query := r.db.WithContext(ctx).Model(&model.EntryLog{}).
		Where("user_id = ?", filter.UserID)
	if filter.Start != nil {
		query = query.Where("log_date >= ?", model.DateOf(*filter.Start))
	}
	if filter.End != nil {
		query = query.Where("log_date <= ?", model.DateOf(*filter.End))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Order("check_in DESC NULLS LAST, log_date DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error
	return logs, total, err
}

func (r *entryLogRepo) MonthlyCounts(ctx context.Context, userID string, months int) ([]MonthCount, error) {
	var rows []MonthCount
	err := r.db.WithContext(ctx).
		Model(&model.EntryLog{}).
		Select("to_char(log_date, 'YYYY-MM') AS month, COUNT(*) AS total").
		Where("user_id = ? AND check_in IS NOT NULL", userID).
		Group("month").
		Order("month DESC").
		Limit(months).
		Scan(&rows).Error
	return rows, err
}

func (r *entryLogRepo) TopUsers(ctx context.Context, limit int) ([]UserCount, error) {
	var rows []UserCount
	err := r.db.WithContext(ctx).
		Table("entry_logs").
		Select("entry_logs.user_id AS user_id, users.username AS username, COUNT(*) AS total").
		Joins("JOIN users ON users.user_id = entry_logs.user_id").
		Group("entry_logs.user_id, users.username").
		Order("total DESC, users.username ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
