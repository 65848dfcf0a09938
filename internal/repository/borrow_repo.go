package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "ptit-library/pkg/errors"

	"ptit-library/internal/model"
)

// BorrowFilter 管理端借阅列表筛选条件
type BorrowFilter struct {
	Status  model.BorrowStatus
	Search  string     // 借阅码 / 学号 / 书名，不区分大小写
	DueFrom *time.Time // 到期日下界（含）
	DueTo   *time.Time // 到期日上界（含）
}

// BookBorrowCount 按图书聚合的借阅数量
type BookBorrowCount struct {
	BookID string
	Title  string
	Total  int64
}

// BorrowRepository 借阅记录数据访问接口
type BorrowRepository interface {
	// NextCodeSeq 从 borrow_code_seq 取下一个序号
	NextCodeSeq(ctx context.Context) (int64, error)
	Create(ctx context.Context, borrow *model.Borrow) error
	GetByID(ctx context.Context, id string) (*model.Borrow, error)
	// GetByIDForUpdate 加行锁读取，须在事务内调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Borrow, error)
	// UpdateTransition 以 (status=from, version) 为条件写入新状态与日期，成功后 version+1
	UpdateTransition(ctx context.Context, borrow *model.Borrow, from model.BorrowStatus) error
	// DeletePending 删除属于 userID 且仍为待取状态的借阅，返回是否删除
	DeletePending(ctx context.Context, id, userID string) (bool, error)

	CountByUserStatuses(ctx context.Context, userID string, statuses []model.BorrowStatus) (int64, error)
	ExistsByUserBookStatuses(ctx context.Context, userID, bookID string, statuses []model.BorrowStatus) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Borrow, error)
	List(ctx context.Context, filter BorrowFilter, offset, limit int) ([]model.Borrow, int64, error)
	ListOverdue(ctx context.Context, today time.Time) ([]model.Borrow, error)
	ListOverdueByUser(ctx context.Context, userID string, today time.Time) ([]model.Borrow, error)
	TopActiveBooks(ctx context.Context, limit int) ([]BookBorrowCount, error)
}

type borrowRepo struct {
	db *gorm.DB
}

// NewBorrowRepo 创建 BorrowRepository 实例
func NewBorrowRepo(db *gorm.DB) BorrowRepository {
	return &borrowRepo{db: db}
}

func (r *borrowRepo) NextCodeSeq(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Raw("SELECT nextval('borrow_code_seq')").Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("获取借阅码序号失败: %w", err)
	}
	return n, nil
}

func (r *borrowRepo) Create(ctx context.Context, borrow *model.Borrow) error {
	return r.db.WithContext(ctx).Create(borrow).Error
}

func (r *borrowRepo) GetByID(ctx context.Context, id string) (*model.Borrow, error) {
	var borrow model.Borrow
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("borrow_id = ?", id).
		First(&borrow).Error
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}

func (r *borrowRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Borrow, error) {
	var borrow model.Borrow
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("borrow_id = ?", id).
		First(&borrow).Error
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}

func (r *borrowRepo) UpdateTransition(ctx context.Context, borrow *model.Borrow, from model.BorrowStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Borrow{}).
		Where("borrow_id = ? AND status = ? AND version = ?", borrow.BorrowID, from, borrow.Version).
		Updates(map[string]interface{}{
			"status":      borrow.Status,
			"due_date":    borrow.DueDate,
			"return_date": borrow.ReturnDate,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	borrow.Version++
	return nil
}

func (r *borrowRepo) DeletePending(ctx context.Context, id, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("borrow_id = ? AND user_id = ? AND status = ?", id, userID, model.BorrowPending).
		Delete(&model.Borrow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *borrowRepo) CountByUserStatuses(ctx context.Context, userID string, statuses []model.BorrowStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Borrow{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Count(&count).Error
	return count, err
}

func (r *borrowRepo) ExistsByUserBookStatuses(ctx context.Context, userID, bookID string, statuses []model.BorrowStatus) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Borrow{}).
		Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, statuses).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *borrowRepo) ListByUser(ctx context.Context, userID string) ([]model.Borrow, error) {
	var borrows []model.Borrow
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("borrow_date DESC, created_at DESC").
		Find(&borrows).Error
	return borrows, err
}

func (r *borrowRepo) List(ctx context.Context, filter BorrowFilter, offset, limit int) ([]model.Borrow, int64, error) {
	var borrows []model.Borrow
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Borrow{})
	if filter.Status != "" {
		query = query.Where("borrows.status = ?", filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("borrows.due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("borrows.due_date <= ?", *filter.DueTo)
	}
	if filter.Search != "" {
		like := "%" + escapeLike(filter.Search) + "%"
		query = query.
			Joins("JOIN users ON users.user_id = borrows.user_id").
			Joins("JOIN books ON books.book_id = borrows.book_id").
			Where("borrows.borrow_code ILIKE ? OR users.username ILIKE ? OR books.title ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("Book").
		Order("borrows.borrow_date DESC, borrows.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&borrows).Error
	return borrows, total, err
}

func (r *borrowRepo) ListOverdue(ctx context.Context, today time.Time) ([]model.Borrow, error) {
	var borrows []model.Borrow
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("status = ? AND due_date < ?", model.BorrowActive, model.DateOf(today)).
		Order("due_date ASC").
		Find(&borrows).Error
	return borrows, err
}

func (r *borrowRepo) ListOverdueByUser(ctx context.Context, userID string, today time.Time) ([]model.Borrow, error) {
	var borrows []model.Borrow
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND status = ? AND due_date < ?", userID, model.BorrowActive, model.DateOf(today)).
		Order("due_date ASC").
		Find(&borrows).Error
	return borrows, err
}

func (r *borrowRepo) TopActiveBooks(ctx context.Context, limit int) ([]BookBorrowCount, error) {
	var rows []BookBorrowCount
	err := r.db.WithContext(ctx).
		Table("borrows").
		Select("borrows.book_id AS book_id, books.title AS title, COUNT(*) AS total").
		Joins("JOIN books ON books.book_id = borrows.book_id").
		Where("borrows.status = ?", model.BorrowActive).
		Group("borrows.book_id, books.title").
		Order("total DESC, books.title ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
