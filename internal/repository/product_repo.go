package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NickMkrtchyan/rankup-square/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	// 列表查询
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	ListPublished(ctx context.Context) ([]model.Product, error)

	// UpsertBySKU 以 SKU 为锚点 upsert（入站导入用）
	UpsertBySKU(ctx context.Context, product *model.Product) error
}

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	Status     string
	CategoryID int64
	Keyword    string
	Page       int
	PageSize   int
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var list []model.Product
	err := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	return list, total, err
}

// ListPublished 出站同步的候选集: 所有已发布商品
func (r *productRepo) ListPublished(ctx context.Context) ([]model.Product, error) {
	var list []model.Product
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ProductStatusPublish).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *productRepo) UpsertBySKU(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "price", "category_id",
				"tags", "meta", "square_raw_data", "updated_at",
			}),
		}).
		Create(product).Error
}
