package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NickMkrtchyan/rankup-square/internal/service"
)

// ==================== OrderPushTask 订单推送任务 ====================

// OrderPushTask 订单推送定时任务
// 每 5 分钟扫描一次待推订单，推送本身幂等，扫描频繁无副作用
type OrderPushTask struct {
	pushService *service.OrderPushService
	cron        *cron.Cron

	mu sync.Mutex
}

// NewOrderPushTask 创建订单推送任务
func NewOrderPushTask(pushService *service.OrderPushService) *OrderPushTask {
	return &OrderPushTask{
		pushService: pushService,
		cron:        cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务
func (t *OrderPushTask) Start() {
	_, _ = t.cron.AddFunc("0 */5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		if _, err := t.PushNow(ctx); err != nil {
			log.Printf("[OrderPushTask] 定时推送失败: %v", err)
		}
	})

	t.cron.Start()
	log.Println("[OrderPushTask] 已启动 (每5分钟)")
}

// Stop 停止任务
func (t *OrderPushTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[OrderPushTask] 已停止")
}

// PushNow 立即扫描并推送全部待推订单
func (t *OrderPushTask) PushNow(ctx context.Context) (*service.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pushService.PushPending(ctx)
}

// PushOrderNow 立即推送单个订单
func (t *OrderPushTask) PushOrderNow(ctx context.Context, orderID int64) (service.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pushService.PushOrder(ctx, orderID)
}
