package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NickMkrtchyan/rankup-square/internal/model"
)

// ==================== 接口定义 ====================

// MappingRepository 本地实体 -> 远端 id 的映射仓储
// 点查/点写/点删，查不到返回 (nil, nil)，调用方按“无缓存”处理
type MappingRepository interface {
	// 商品映射
	GetProductMapping(ctx context.Context, productID int64) (*model.ProductMapping, error)
	SaveProductItemID(ctx context.Context, productID int64, itemID string) error
	SaveProductVarID(ctx context.Context, productID int64, varID string) error
	ClearProductItemID(ctx context.Context, productID int64) error
	ClearProductVarID(ctx context.Context, productID int64) error
	DeleteProductMapping(ctx context.Context, productID int64) error

	// 分类映射
	GetCategoryMapping(ctx context.Context, categoryID int64) (*model.CategoryMapping, error)
	SaveCategoryMapping(ctx context.Context, categoryID int64, squareCatID string) error
}

// ==================== 仓储实现 ====================

type mappingRepo struct {
	db *gorm.DB
}

// NewMappingRepository 创建映射仓储
func NewMappingRepository(db *gorm.DB) MappingRepository {
	return &mappingRepo{db: db}
}

func (r *mappingRepo) GetProductMapping(ctx context.Context, productID int64) (*model.ProductMapping, error) {
	var m model.ProductMapping
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) SaveProductItemID(ctx context.Context, productID int64, itemID string) error {
	return r.upsertProductColumn(ctx, productID, "square_item_id", itemID)
}

func (r *mappingRepo) SaveProductVarID(ctx context.Context, productID int64, varID string) error {
	return r.upsertProductColumn(ctx, productID, "square_var_id", varID)
}

func (r *mappingRepo) ClearProductItemID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductMapping{}).
		Where("product_id = ?", productID).
		Update("square_item_id", "").Error
}

func (r *mappingRepo) ClearProductVarID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductMapping{}).
		Where("product_id = ?", productID).
		Update("square_var_id", "").Error
}

func (r *mappingRepo) DeleteProductMapping(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductMapping{}).Error
}

func (r *mappingRepo) GetCategoryMapping(ctx context.Context, categoryID int64) (*model.CategoryMapping, error) {
	var m model.CategoryMapping
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) SaveCategoryMapping(ctx context.Context, categoryID int64, squareCatID string) error {
	m := model.CategoryMapping{
		CategoryID:  categoryID,
		SquareCatID: squareCatID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"square_cat_id", "updated_at"}),
		}).
		Create(&m).Error
}

// upsertProductColumn 单列 upsert: 行不存在则建行，存在则只改这一列
func (r *mappingRepo) upsertProductColumn(ctx context.Context, productID int64, column, value string) error {
	m := model.ProductMapping{ProductID: productID}
	switch column {
	case "square_item_id":
		m.SquareItemID = value
	case "square_var_id":
		m.SquareVarID = value
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
		}).
		Create(&m).Error
}
