package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/NickMkrtchyan/rankup-square/internal/model"
)

// ==================== 接口定义 ====================

// CategoryRepository 商品分类仓储接口
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetByName(ctx context.Context, name string) (*model.Category, error)
	// GetOrCreateByName 按名称取分类，不存在则创建（入站导入用）
	GetOrCreateByName(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}

// ==================== 仓储实现 ====================

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var cat model.Category
	err := r.db.WithContext(ctx).First(&cat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepo) GetByName(ctx context.Context, name string) (*model.Category, error) {
	var cat model.Category
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepo) GetOrCreateByName(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("分类名称不能为空")
	}
	cat := model.Category{Name: name}
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&cat).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}
