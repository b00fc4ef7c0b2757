package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/NickMkrtchyan/rankup-square/internal/model"
)

// ==================== 过滤条件 ====================

// OrderFilter 订单过滤条件
type OrderFilter struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error

	// 推送相关
	ListNeedingPush(ctx context.Context, limit int) ([]model.Order, error)
	MarkPushed(ctx context.Context, id int64, squareOrderID string) error
}

// ==================== 实现 ====================

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
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

	var list []model.Order
	err := query.
		Preload("Items").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	return list, total, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListNeedingPush 待推送订单: 可推状态且从未推送过
func (r *orderRepository) ListNeedingPush(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("square_order_id = ''").
		Where("status IN ?", []string{model.OrderStatusProcessing, model.OrderStatusCompleted}).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *orderRepository) MarkPushed(ctx context.Context, id int64, squareOrderID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"square_order_id":  squareOrderID,
			"square_pushed_at": &now,
		}).Error
}
