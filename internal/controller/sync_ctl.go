package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NickMkrtchyan/rankup-square/internal/task"
)

// SyncController 同步控制器
type SyncController struct {
	taskManager *task.TaskManager
}

// NewSyncController 创建同步控制器
func NewSyncController(taskManager *task.TaskManager) *SyncController {
	return &SyncController{taskManager: taskManager}
}

// ==================== Handler 实现 ====================

// PushCatalog 全量出站推送
// @Summary 手动触发目录推送（本地 -> Square）
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/sync/push [post]
func (c *SyncController) PushCatalog(ctx *gin.Context) {
	summary, err := c.taskManager.TriggerPush(ctx.Request.Context())
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "目录推送完成",
		"data":    summary,
	})
}

// PushProduct 单商品推送
// @Summary 手动推送单个商品
// @Tags Sync
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/sync/products/{id} [post]
func (c *SyncController) PushProduct(ctx *gin.Context) {
	productID := parseID(ctx, "id")
	if productID == 0 {
		return
	}

	outcome, err := c.taskManager.TriggerProductPush(ctx.Request.Context(), productID)
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "商品推送完成",
		"data":    gin.H{"product_id": productID, "outcome": outcome},
	})
}

// PullCatalog 全量入站导入
// @Summary 手动触发目录导入（Square -> 本地）
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/sync/pull [post]
func (c *SyncController) PullCatalog(ctx *gin.Context) {
	summary, err := c.taskManager.TriggerPull(ctx.Request.Context())
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "目录导入完成",
		"data":    summary,
	})
}

// PushOrders 批量订单推送
// @Summary 手动触发待推订单推送
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/sync/orders [post]
func (c *SyncController) PushOrders(ctx *gin.Context) {
	summary, err := c.taskManager.TriggerOrderPush(ctx.Request.Context())
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "订单推送完成",
		"data":    summary,
	})
}

// ScanDupes 重复 SKU 巡检
// @Summary 扫描远端重复 SKU（只读）
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/sync/dupe-scan [post]
func (c *SyncController) ScanDupes(ctx *gin.Context) {
	report, err := c.taskManager.TriggerDupeScan(ctx.Request.Context())
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "巡检完成",
		"data":    gin.H{"duplicates": report, "count": len(report)},
	})
}

// TaskStatus 任务挂载状态
// @Summary 查询定时任务挂载状态
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sync/status [get]
func (c *SyncController) TaskStatus(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"code": 200,
		"data": c.taskManager.Status(),
	})
}

// ==================== 工具函数 ====================

func respondTaskError(ctx *gin.Context, err error) {
	if errors.Is(err, task.ErrTaskDisabled) {
		ctx.JSON(409, gin.H{"code": 409, "message": "该同步任务未启用"})
		return
	}
	ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
}

func parseID(ctx *gin.Context, key string) int64 {
	idStr := ctx.Param(key)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(400, gin.H{"code": 400, "message": "无效的 ID"})
		return 0
	}
	return id
}
