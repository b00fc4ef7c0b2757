package task

import (
	"context"
	"log"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理定时同步任务
// 管理范围：目录推送、目录导入、订单推送
type TaskManager struct {
	catalogTask *CatalogSyncTask
	orderTask   *OrderPushTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ReconcileService *service.ReconcileService
	ImportService    *service.ImportService
	OrderPushService *service.OrderPushService
}

// NewTaskManager 创建任务管理器，按配置开关挂载任务
func NewTaskManager(deps *TaskManagerDeps, cfg config.SyncConfig) *TaskManager {
	tm := &TaskManager{}

	if (cfg.PushEnabled || cfg.PullEnabled) && deps.ReconcileService != nil && deps.ImportService != nil {
		tm.catalogTask = NewCatalogSyncTask(
			deps.ReconcileService,
			deps.ImportService,
			cfg.PushEnabled,
			cfg.PullEnabled,
		)
	}

	if cfg.OrdersEnabled && deps.OrderPushService != nil {
		tm.orderTask = NewOrderPushTask(deps.OrderPushService)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	log.Println("[TaskManager] 正在启动同步任务...")

	if tm.catalogTask != nil {
		tm.catalogTask.Start()
	}
	if tm.orderTask != nil {
		tm.orderTask.Start()
	}

	log.Println("[TaskManager] 同步任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止同步任务...")

	if tm.catalogTask != nil {
		tm.catalogTask.Stop()
	}
	if tm.orderTask != nil {
		tm.orderTask.Stop()
	}

	log.Println("[TaskManager] 同步任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerPush 触发一轮出站推送
func (tm *TaskManager) TriggerPush(ctx context.Context) (*service.Summary, error) {
	if tm.catalogTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.catalogTask.PushNow(ctx)
}

// TriggerPull 触发一轮入站导入
func (tm *TaskManager) TriggerPull(ctx context.Context) (*service.Summary, error) {
	if tm.catalogTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.catalogTask.PullNow(ctx)
}

// TriggerProductPush 触发单商品推送
func (tm *TaskManager) TriggerProductPush(ctx context.Context, productID int64) (service.Outcome, error) {
	if tm.catalogTask == nil {
		return service.OutcomeFailed, ErrTaskDisabled
	}
	return tm.catalogTask.PushProductNow(ctx, productID)
}

// TriggerDupeScan 触发远端重复 SKU 巡检
func (tm *TaskManager) TriggerDupeScan(ctx context.Context) ([]service.DuplicateSKU, error) {
	if tm.catalogTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.catalogTask.ScanDupesNow(ctx)
}

// TriggerOrderPush 触发订单批量推送
func (tm *TaskManager) TriggerOrderPush(ctx context.Context) (*service.Summary, error) {
	if tm.orderTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.orderTask.PushNow(ctx)
}

// ==================== 状态查询 ====================

// Status 获取任务挂载状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"catalog": tm.catalogTask != nil,
		"order":   tm.orderTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
