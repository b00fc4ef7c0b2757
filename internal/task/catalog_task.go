package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NickMkrtchyan/rankup-square/internal/service"
)

// ==================== CatalogSyncTask 目录同步任务 ====================

// CatalogSyncTask 目录双向同步定时任务
// 同步策略：
//   - 出站推送：每小时整点
//   - 入站导入：每小时第 10 分（错峰，避免与推送互相踩）
type CatalogSyncTask struct {
	reconcile *service.ReconcileService
	importer  *service.ImportService
	cron      *cron.Cron

	pushEnabled bool
	pullEnabled bool

	// 同一时刻只允许一轮目录同步在跑，推拉互斥
	mu sync.Mutex
}

// NewCatalogSyncTask 创建目录同步任务
func NewCatalogSyncTask(
	reconcile *service.ReconcileService,
	importer *service.ImportService,
	pushEnabled, pullEnabled bool,
) *CatalogSyncTask {
	return &CatalogSyncTask{
		reconcile:   reconcile,
		importer:    importer,
		cron:        cron.New(cron.WithSeconds()),
		pushEnabled: pushEnabled,
		pullEnabled: pullEnabled,
	}
}

// Start 启动定时任务
func (t *CatalogSyncTask) Start() {
	if t.pushEnabled {
		_, _ = t.cron.AddFunc("0 0 * * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Minute)
			defer cancel()
			if _, err := t.PushNow(ctx); err != nil {
				log.Printf("[CatalogSyncTask] 定时推送失败: %v", err)
			}
		})
	}
	if t.pullEnabled {
		_, _ = t.cron.AddFunc("0 10 * * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Minute)
			defer cancel()
			if _, err := t.PullNow(ctx); err != nil {
				log.Printf("[CatalogSyncTask] 定时导入失败: %v", err)
			}
		})
	}

	t.cron.Start()
	log.Printf("[CatalogSyncTask] 已启动 (推送=%v 每小时整点 / 导入=%v 每小时第10分)", t.pushEnabled, t.pullEnabled)
}

// Stop 停止任务
func (t *CatalogSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[CatalogSyncTask] 已停止")
}

// PushNow 立即执行一轮出站推送
func (t *CatalogSyncTask) PushNow(ctx context.Context) (*service.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconcile.SyncAll(ctx)
}

// PullNow 立即执行一轮入站导入
func (t *CatalogSyncTask) PullNow(ctx context.Context) (*service.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.importer.SyncAll(ctx)
}

// ScanDupesNow 立即执行远端重复 SKU 巡检（只读，不抢同步锁）
func (t *CatalogSyncTask) ScanDupesNow(ctx context.Context) ([]service.DuplicateSKU, error) {
	return t.reconcile.ScanDuplicateSKUs(ctx)
}

// PushProductNow 立即推送单个商品
func (t *CatalogSyncTask) PushProductNow(ctx context.Context, productID int64) (service.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconcile.ReconcileProduct(ctx, productID)
}
