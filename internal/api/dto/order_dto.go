package dto

// ==================== 订单相关 DTO ====================

// ListOrdersRequest 订单列表查询参数
type ListOrdersRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// OrderListItem 订单列表项
type OrderListItem struct {
	ID            int64  `json:"id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	Currency      string `json:"currency"`
	ItemCount     int    `json:"item_count"`
	SquareOrderID string `json:"square_order_id,omitempty"`
}

// ListOrdersResponse 订单列表响应
type ListOrdersResponse struct {
	Total int64           `json:"total"`
	List  []OrderListItem `json:"list"`
}
