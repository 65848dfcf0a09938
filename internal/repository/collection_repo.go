package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ptit-library/internal/model"
)

// CollectionRepository 集合/分类数据访问接口
type CollectionRepository interface {
	ListWithSubCollections(ctx context.Context) ([]model.Collection, error)
	GetSubCollection(ctx context.Context, id string) (*model.SubCollection, error)
	// EnsureCollection 按名称查找，不存在则创建（种子数据使用）
	EnsureCollection(ctx context.Context, name string) (*model.Collection, bool, error)
	EnsureSubCollection(ctx context.Context, collectionID, name string) (*model.SubCollection, bool, error)
}

type collectionRepo struct {
	db *gorm.DB
}

// NewCollectionRepo 创建 CollectionRepository 实例
func NewCollectionRepo(db *gorm.DB) CollectionRepository {
	return &collectionRepo{db: db}
}

func (r *collectionRepo) ListWithSubCollections(ctx context.Context) ([]model.Collection, error) {
	var collections []model.Collection
	err := r.db.WithContext(ctx).
		Preload("SubCollections", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Order("created_at ASC, name ASC").
		Find(&collections).Error
	return collections, err
}

func (r *collectionRepo) GetSubCollection(ctx context.Context, id string) (*model.SubCollection, error) {
	var sub model.SubCollection
	err := r.db.WithContext(ctx).
		Preload("Collection").
		Where("sub_collection_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *collectionRepo) EnsureCollection(ctx context.Context, name string) (*model.Collection, bool, error) {
	db := r.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&model.Collection{Name: name})
	if result.Error != nil {
		return nil, false, result.Error
	}

	var c model.Collection
	if err := db.Where("name = ?", name).First(&c).Error; err != nil {
		return nil, false, err
	}
	return &c, result.RowsAffected > 0, nil
}

func (r *collectionRepo) EnsureSubCollection(ctx context.Context, collectionID, name string) (*model.SubCollection, bool, error) {
	db := r.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&model.SubCollection{CollectionID: collectionID, Name: name})
	if result.Error != nil {
		return nil, false, result.Error
	}

	var sub model.SubCollection
	if err := db.Where("collection_id = ? AND name = ?", collectionID, name).First(&sub).Error; err != nil {
		return nil, false, err
	}
	return &sub, result.RowsAffected > 0, nil
}
