package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
	"github.com/NickMkrtchyan/rankup-square/pkg/utils"
)

// ErrLocationNotConfigured 未配置远端 Location，订单无处可挂
var ErrLocationNotConfigured = errors.New("订单推送需要配置 square.location_id")

// ==================== OrderPushService ====================

// OrderPushService 订单推送器（只追加）
// 幂等闸: 本地已记录远端订单 id 的订单永不重推
type OrderPushService struct {
	orderRepo  repository.OrderRepository
	api        CatalogAPI
	locationID string
	cfg        config.SyncConfig
}

// NewOrderPushService 创建订单推送器
func NewOrderPushService(
	orderRepo repository.OrderRepository,
	api CatalogAPI,
	locationID string,
	cfg config.SyncConfig,
) *OrderPushService {
	return &OrderPushService{
		orderRepo:  orderRepo,
		api:        api,
		locationID: locationID,
		cfg:        cfg,
	}
}

// PushOrder 推送单个订单
// 已推送过或状态不可推时直接跳过，不报错
func (s *OrderPushService) PushOrder(ctx context.Context, orderID int64) (Outcome, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("查询订单失败: %w", err)
	}
	return s.pushOne(ctx, order)
}

// PushPending 扫描并推送全部待推订单
func (s *OrderPushService) PushPending(ctx context.Context) (*Summary, error) {
	orders, err := s.orderRepo.ListNeedingPush(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("查询待推订单失败: %w", err)
	}

	summary := &Summary{}
	log.Printf("[OrderPushService] 开始订单推送 待推=%d", len(orders))
	for i := range orders {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		outcome, err := s.pushOne(ctx, &orders[i])
		switch {
		case err != nil:
			summary.Errors++
			log.Printf("[OrderPushService] ❌ 订单推送失败 order_id=%d err=%v", orders[i].ID, err)
		case outcome == OutcomeUpdated:
			summary.Updated++
		default:
			summary.Skipped++
		}
	}
	log.Printf("[OrderPushService] 订单推送完成 pushed=%d skipped=%d errors=%d",
		summary.Updated, summary.Skipped, summary.Errors)
	return summary, nil
}

func (s *OrderPushService) pushOne(ctx context.Context, order *model.Order) (Outcome, error) {
	if order.SquareOrderID != "" {
		return OutcomeSkipped, nil
	}
	if !order.NeedsPush() {
		log.Printf("[OrderPushService] 跳过: 订单状态不可推 order_id=%d status=%s", order.ID, order.Status)
		return OutcomeSkipped, nil
	}
	if s.locationID == "" {
		return OutcomeFailed, ErrLocationNotConfigured
	}
	if len(order.Items) == 0 {
		log.Printf("[OrderPushService] 跳过: 订单无条目 order_id=%d", order.ID)
		return OutcomeSkipped, nil
	}

	currency := order.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	lines := make([]square.OrderLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, square.OrderLineItem{
			Name:     item.Name,
			Quantity: strconv.Itoa(qty),
			BasePriceMoney: square.Money{
				Amount:   utils.MoneyToMinorUnits(item.UnitPrice, s.cfg.PriceDecimals),
				Currency: currency,
			},
		})
	}

	resp, err := s.api.CreateOrder(ctx, square.Order{
		LocationID:  s.locationID,
		ReferenceID: order.OrderNumber,
		LineItems:   lines,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("远端订单创建失败: %w", err)
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return OutcomeFailed, fmt.Errorf("远端订单响应缺少 id")
	}

	if err := s.orderRepo.MarkPushed(ctx, order.ID, resp.Order.ID); err != nil {
		// 远端已落单但本地标记失败，下一轮会重推造成重复，必须醒目报出
		log.Printf("[OrderPushService] ❌ 推送标记落库失败，存在重复推送风险 order_id=%d square_order_id=%s err=%v",
			order.ID, resp.Order.ID, err)
		return OutcomeFailed, fmt.Errorf("推送标记落库失败: %w", err)
	}

	log.Printf("[OrderPushService] ✅ 订单已推送 order_id=%d square_order_id=%s", order.ID, resp.Order.ID)
	return OutcomeUpdated, nil
}
