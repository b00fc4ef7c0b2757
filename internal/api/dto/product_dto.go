package dto

// ==================== 商品相关 DTO ====================

// ListProductsRequest 商品列表查询参数
type ListProductsRequest struct {
	Status     string `form:"status"`
	CategoryID int64  `form:"category_id"`
	Keyword    string `form:"keyword"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
}

// ProductListItem 商品列表项
type ProductListItem struct {
	ID           int64    `json:"id"`
	SKU          string   `json:"sku"`
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Status       string   `json:"status"`
	CategoryID   int64    `json:"category_id"`
	Tags         []string `json:"tags,omitempty"`
	GTIN         string   `json:"gtin,omitempty"`
	SquareItemID string   `json:"square_item_id,omitempty"`
	SquareVarID  string   `json:"square_var_id,omitempty"`
}

// ListProductsResponse 商品列表响应
type ListProductsResponse struct {
	Total int64             `json:"total"`
	List  []ProductListItem `json:"list"`
}
