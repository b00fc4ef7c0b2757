package square

import (
	"fmt"
	"strings"
)

// ==========================================
// DTO: Square Catalog API 的请求/响应对象
// 所有请求体都是显式结构体，不允许裸 map 拼装
// ==========================================

// 目录对象类型
const (
	ObjectTypeItem      = "ITEM"
	ObjectTypeVariation = "ITEM_VARIATION"
	ObjectTypeCategory  = "CATEGORY"
)

// PricingTypeFixed 固定定价 (本系统只用这一种)
const PricingTypeFixed = "FIXED_PRICING"

// Money 金额 (整数最小货币单位 + 货币代码)
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ItemData ITEM 的业务数据
type ItemData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// CategoryID 可以是真实远端 id，也可以是同批次内的占位 id
	CategoryID string `json:"category_id,omitempty"`
}

// ItemVariationData ITEM_VARIATION 的业务数据
type ItemVariationData struct {
	// ItemID 父 Item 引用，远端视为不可变更:
	// 只在创建新变体时携带，更新存量变体时必须省略
	ItemID      string `json:"item_id,omitempty"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	PricingType string `json:"pricing_type"`
	PriceMoney  *Money `json:"price_money,omitempty"`
	UPC         string `json:"upc,omitempty"`
}

// CategoryData CATEGORY 的业务数据
type CategoryData struct {
	Name string `json:"name"`
}

// CatalogObject 目录对象
// 按 Type 填充对应的 *Data 字段，互斥；构造统一走 New*Object，保证配对正确
type CatalogObject struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	// Version 乐观并发版本号: 更新必带，创建省略
	Version               *int64 `json:"version,omitempty"`
	IsDeleted             bool   `json:"is_deleted,omitempty"`
	PresentAtAllLocations bool   `json:"present_at_all_locations,omitempty"`

	ItemData          *ItemData          `json:"item_data,omitempty"`
	ItemVariationData *ItemVariationData `json:"item_variation_data,omitempty"`
	CategoryData      *CategoryData      `json:"category_data,omitempty"`
}

// ==================== 构造器 (带校验) ====================

// NewItemObject 构造 ITEM 对象
func NewItemObject(id string, data ItemData) (CatalogObject, error) {
	if id == "" {
		return CatalogObject{}, fmt.Errorf("square: item id 不能为空")
	}
	if data.Name == "" {
		return CatalogObject{}, fmt.Errorf("square: item name 不能为空")
	}
	return CatalogObject{
		Type:     ObjectTypeItem,
		ID:       id,
		ItemData: &data,
	}, nil
}

// NewVariationObject 构造 ITEM_VARIATION 对象
// 强制 FIXED_PRICING；SKU 与价格为必填
func NewVariationObject(id string, data ItemVariationData) (CatalogObject, error) {
	if id == "" {
		return CatalogObject{}, fmt.Errorf("square: variation id 不能为空")
	}
	if data.SKU == "" {
		return CatalogObject{}, fmt.Errorf("square: variation sku 不能为空")
	}
	if data.PriceMoney == nil {
		return CatalogObject{}, fmt.Errorf("square: variation 缺少 price_money")
	}
	if data.PricingType == "" {
		data.PricingType = PricingTypeFixed
	}
	return CatalogObject{
		Type:              ObjectTypeVariation,
		ID:                id,
		ItemVariationData: &data,
	}, nil
}

// NewCategoryObject 构造 CATEGORY 对象
func NewCategoryObject(id, name string) (CatalogObject, error) {
	if id == "" || name == "" {
		return CatalogObject{}, fmt.Errorf("square: category id/name 不能为空")
	}
	return CatalogObject{
		Type:         ObjectTypeCategory,
		ID:           id,
		CategoryData: &CategoryData{Name: name},
	}, nil
}

// ==================== 占位 ID ====================

// 批次内客户端占位 id 前缀: 新建对象在远端分配真实 id 前
// 通过占位 id 互相引用，前缀后跟本地实体 id
const (
	PlaceholderItemPrefix      = "#ITEM-"
	PlaceholderVariationPrefix = "#VAR-"
	PlaceholderCategoryPrefix  = "#CAT-"
)

// IsPlaceholderID 是否为客户端占位 id
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, "#")
}

// ==================== 搜索请求 ====================

// SearchCatalogReq 目录搜索请求 (只用精确匹配，不做模糊搜索)
type SearchCatalogReq struct {
	ObjectTypes           []string     `json:"object_types"`
	IncludeRelatedObjects bool         `json:"include_related_objects,omitempty"`
	Query                 *SearchQuery `json:"query,omitempty"`
	Cursor                string       `json:"cursor,omitempty"`
}

// SearchQuery 查询条件
type SearchQuery struct {
	ExactQuery *ExactQuery `json:"exact_query,omitempty"`
}

// ExactQuery 属性精确匹配
type ExactQuery struct {
	AttributeName  string `json:"attribute_name"`
	AttributeValue string `json:"attribute_value"`
}

// ==================== 批量 Upsert 请求 ====================

// BatchUpsertReq 批量 upsert 请求 (整批原子提交)
type BatchUpsertReq struct {
	IdempotencyKey string        `json:"idempotency_key"`
	Batches        []ObjectBatch `json:"batches"`
}

// ObjectBatch 一个对象批次
type ObjectBatch struct {
	Objects []CatalogObject `json:"objects"`
}

// ==================== 订单请求 ====================

// OrderLineItem 订单行
type OrderLineItem struct {
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	BasePriceMoney Money  `json:"base_price_money"`
}

// Order 订单创建载荷 (远端只追加，不存在更新路径)
type Order struct {
	LocationID  string          `json:"location_id"`
	ReferenceID string          `json:"reference_id,omitempty"`
	LineItems   []OrderLineItem `json:"line_items"`
}

// CreateOrderReq 订单创建请求
type CreateOrderReq struct {
	IdempotencyKey string `json:"idempotency_key"`
	Order          Order  `json:"order"`
}
