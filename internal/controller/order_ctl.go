package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/NickMkrtchyan/rankup-square/internal/api/dto"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
	"github.com/NickMkrtchyan/rankup-square/internal/service"
)

// OrderController 订单控制器
type OrderController struct {
	orderRepo   repository.OrderRepository
	pushService *service.OrderPushService
}

// NewOrderController 创建订单控制器
func NewOrderController(orderRepo repository.OrderRepository, pushService *service.OrderPushService) *OrderController {
	return &OrderController{orderRepo: orderRepo, pushService: pushService}
}

// ==================== Handler 实现 ====================

// ListOrders 订单列表
// @Summary 订单列表（含推送状态）
// @Tags Order
// @Param status query string false "订单状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orders [get]
func (c *OrderController) ListOrders(ctx *gin.Context) {
	var req dto.ListOrdersRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, gin.H{"code": 400, "message": "无效的查询参数"})
		return
	}

	orders, total, err := c.orderRepo.List(ctx.Request.Context(), repository.OrderFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	list := make([]dto.OrderListItem, len(orders))
	for i, o := range orders {
		list[i] = dto.OrderListItem{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			Status:        o.Status,
			Currency:      o.Currency,
			ItemCount:     len(o.Items),
			SquareOrderID: o.SquareOrderID,
		}
	}

	ctx.JSON(200, gin.H{
		"code": 200,
		"data": dto.ListOrdersResponse{Total: total, List: list},
	})
}

// PushOrder 推送单个订单
// @Summary 手动推送单个订单
// @Tags Order
// @Param id path int true "订单 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orders/{id}/push [post]
func (c *OrderController) PushOrder(ctx *gin.Context) {
	orderID := parseID(ctx, "id")
	if orderID == 0 {
		return
	}

	outcome, err := c.pushService.PushOrder(ctx.Request.Context(), orderID)
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "订单推送完成",
		"data":    gin.H{"order_id": orderID, "outcome": outcome},
	})
}
