package repository

import (
	"context"

	"gorm.io/gorm"

	"ptit-library/internal/model"
)

// BookRepository 图书数据访问接口
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	// Update 写回目录字段；库存由 SetQuantity 与增减方法单独维护
	Update(ctx context.Context, book *model.Book) error
	// SetQuantity 馆员盘点时直接设定库存
	SetQuantity(ctx context.Context, id string, quantity int) error
	GetByID(ctx context.Context, id string) (*model.Book, error)
	ListBySubCollection(ctx context.Context, subCollectionID string, offset, limit int) ([]model.Book, int64, error)
	// Search 在 search_text 上做子串匹配；folded 须已去变音并转小写，为空时返回全部
	Search(ctx context.Context, folded string, offset, limit int) ([]model.Book, int64, error)
	// DecrementQuantity 库存大于 0 时减 1；返回是否实际扣减
	DecrementQuantity(ctx context.Context, id string) (bool, error)
	IncrementQuantity(ctx context.Context, id string) error
}

type bookRepo struct {
	db *gorm.DB
}

// NewBookRepo 创建 BookRepository 实例
func NewBookRepo(db *gorm.DB) BookRepository {
	return &bookRepo{db: db}
}

func (r *bookRepo) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepo) Update(ctx context.Context, book *model.Book) error {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("book_id = ?", book.BookID).
		Updates(map[string]interface{}{
			"title":             book.Title,
			"author":            book.Author,
			"sub_collection_id": book.SubCollectionID,
			"publish_year":      book.PublishYear,
			"publisher":         book.Publisher,
			"cover_url":         book.CoverURL,
			"pdf_url":           book.PDFURL,
			"search_text":       book.SearchText,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookRepo) SetQuantity(ctx context.Context, id string, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("book_id = ?", id).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookRepo) GetByID(ctx context.Context, id string) (*model.Book, error) {
	var book model.Book
	err := r.db.WithContext(ctx).
		Preload("SubCollection.Collection").
		Where("book_id = ?", id).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) ListBySubCollection(ctx context.Context, subCollectionID string, offset, limit int) ([]model.Book, int64, error) {
	var books []model.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("sub_collection_id = ?", subCollectionID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("title ASC").
		Offset(offset).Limit(limit).
		Find(&books).Error
	return books, total, err
}

func (r *bookRepo) Search(ctx context.Context, folded string, offset, limit int) ([]model.Book, int64, error) {
	var books []model.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Book{})
	if folded != "" {
		query = query.Where("search_text LIKE ?", "%"+escapeLike(folded)+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("SubCollection").
		Order("title ASC").
		Offset(offset).Limit(limit).
		Find(&books).Error
	return books, total, err
}

func (r *bookRepo) DecrementQuantity(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("book_id = ? AND quantity > 0", id).
		Update("quantity", gorm.Expr("quantity - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *bookRepo) IncrementQuantity(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("book_id = ?", id).
		Update("quantity", gorm.Expr("quantity + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
