package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步限流中间件 ====================

// SyncRateLimit 同步限流中间件
// 带商品 id 的路由按商品维度限流，否则退回全局限流
//
// 使用示例:
//
//	router.POST("/api/v1/sync/products/:id",
//	    middleware.SyncRateLimit(middleware.SyncTypePush, 0),
//	    controller.TriggerProductPush,
//	)
//
// 参数:
//   - syncType: 同步类型
//   - interval: 冷却间隔，0 表示使用默认值
func SyncRateLimit(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(syncType)
	}

	return func(c *gin.Context) {
		productIDStr := c.Param("id")
		if productIDStr == "" {
			productIDStr = c.Query("product_id")
		}

		var key string
		if productIDStr != "" {
			productID, err := strconv.ParseInt(productIDStr, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    400,
					"message": "无效的商品 ID",
				})
				c.Abort()
				return
			}
			key = ProductSyncKey(productID, syncType)
		} else {
			key = GlobalSyncKey(syncType)
		}

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
					"sync_type":   syncType,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GlobalSyncRateLimit 全局同步限流中间件
// 用于全量推送/导入等全局操作
func GlobalSyncRateLimit(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(syncType)
	}

	return func(c *gin.Context) {
		key := GlobalSyncKey(syncType)

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
					"sync_type":   syncType,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
