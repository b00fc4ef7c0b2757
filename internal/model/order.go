package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== 订单状态常量 ====================

const (
	OrderStatusPending    = "pending"    // 待处理
	OrderStatusProcessing = "processing" // 处理中（已支付）
	OrderStatusCompleted  = "completed"  // 已完成
	OrderStatusCanceled   = "canceled"   // 已取消
)

// ==================== Order 订单主表 ====================

type Order struct {
	BaseModel

	OrderNumber string `gorm:"size:32;uniqueIndex;not null"`
	Status      string `gorm:"size:20;index;default:pending"`
	Currency    string `gorm:"size:5;default:USD"`

	// --- 远端推送标记 ---
	// 非空表示已推送成功，永不重推（幂等闸）
	SquareOrderID  string `gorm:"size:64;index"`
	SquarePushedAt *time.Time

	// 关联
	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (*Order) TableName() string {
	return "orders"
}

// NeedsPush 是否需要推送到远端
// 只推 processing / completed 两种状态，且从未推送过
func (o *Order) NeedsPush() bool {
	if o.SquareOrderID != "" {
		return false
	}
	return o.Status == OrderStatusProcessing || o.Status == OrderStatusCompleted
}

// ==================== OrderItem 订单项 ====================

type OrderItem struct {
	BaseModel

	OrderID   int64  `gorm:"index;not null"`
	Order     *Order `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ProductID int64  `gorm:"index"`

	Name     string `gorm:"size:255"`
	SKU      string `gorm:"size:100;index"`
	Quantity int    `gorm:"default:1"`

	// UnitPrice 不含税单价
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,4)"`
}

func (*OrderItem) TableName() string {
	return "order_items"
}
