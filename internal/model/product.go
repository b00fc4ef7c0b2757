package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// 商品状态
const (
	ProductStatusPublish = "publish"
	ProductStatusDraft   = "draft"
)

type Product struct {
	BaseModel

	// --- 同步锚点 ---
	// SKU 本地唯一；为空表示该商品不参与出站同步
	SKU string `gorm:"size:100;uniqueIndex"`

	// --- 商品基本信息 ---
	Name        string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:20;index"` // publish, draft

	// --- 价格 ---
	// 店铺原始价格文本 (十进制字符串)，同步时再解析校验
	Price string `gorm:"size:32"`

	// --- 分类与标签 ---
	CategoryID int64          `gorm:"index;default:0"`
	Category   *Category      `gorm:"foreignKey:CategoryID"`
	Tags       pq.StringArray `gorm:"type:text[]"`

	// --- 自由元数据 ---
	// GTIN 等扩展字段按配置的 meta key 存放在这里
	Meta datatypes.JSONMap `gorm:"type:jsonb"`

	// --- 入站导入诊断 ---
	SquareRawData datatypes.JSON `gorm:"type:jsonb"` // 最近一次导入的远端变体原始 JSON
}

func (Product) TableName() string {
	return "products"
}

// MetaString 读取字符串类型的元数据字段
func (p *Product) MetaString(key string) string {
	if p.Meta == nil {
		return ""
	}
	if v, ok := p.Meta[key].(string); ok {
		return v
	}
	return ""
}

// SetMeta 写入元数据字段
func (p *Product) SetMeta(key string, value interface{}) {
	if p.Meta == nil {
		p.Meta = datatypes.JSONMap{}
	}
	p.Meta[key] = value
}

type Category struct {
	BaseModel
	Name string `gorm:"size:255;uniqueIndex;not null"`
}

func (Category) TableName() string {
	return "categories"
}
