package model

import "time"

// ==================== 身份映射 ====================
//
// 映射只承诺“最后一次已知有效的远端 id”，远端可能已删除/重建，
// 解析器不会盲信，提交前必须逐个校验。
// 映射行不做软删除: 点删就是真删，避免唯一索引与墓碑行冲突。

// ProductMapping 本地商品 -> 远端 (item id, variation id)
type ProductMapping struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ProductID    int64  `gorm:"uniqueIndex;not null"`
	SquareItemID string `gorm:"size:64;index"`
	SquareVarID  string `gorm:"size:64;index"` // 一个远端变体 id 不会同时映射到两个本地商品
}

func (ProductMapping) TableName() string {
	return "product_mappings"
}

// CategoryMapping 本地分类 -> 远端分类 id
type CategoryMapping struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT"`
	CreatedAt time.Time
	UpdatedAt time.Time

	CategoryID  int64  `gorm:"uniqueIndex;not null"`
	SquareCatID string `gorm:"size:64"`
}

func (CategoryMapping) TableName() string {
	return "category_mappings"
}
