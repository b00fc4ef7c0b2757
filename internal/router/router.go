package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/NickMkrtchyan/rankup-square/docs"
	"github.com/NickMkrtchyan/rankup-square/internal/controller"
	"github.com/NickMkrtchyan/rankup-square/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	syncCtl *controller.SyncController,
	productCtl *controller.ProductController,
	orderCtl *controller.OrderController) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. API 路由组
	api := r.Group("/api/v1")
	{
		// sync 同步触发组（手动触发都有限流冷却）
		sync := api.Group("/sync")
		{
			// POST /api/v1/sync/push
			sync.POST("/push",
				middleware.GlobalSyncRateLimit(middleware.SyncTypePush, 0),
				syncCtl.PushCatalog)

			// POST /api/v1/sync/pull
			sync.POST("/pull",
				middleware.GlobalSyncRateLimit(middleware.SyncTypePull, 0),
				syncCtl.PullCatalog)

			// POST /api/v1/sync/products/:id 单商品推送按商品维度限流
			sync.POST("/products/:id",
				middleware.SyncRateLimit(middleware.SyncTypePush, 0),
				syncCtl.PushProduct)

			// POST /api/v1/sync/orders
			sync.POST("/orders",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeOrder, 0),
				syncCtl.PushOrders)

			// POST /api/v1/sync/dupe-scan
			sync.POST("/dupe-scan",
				middleware.GlobalSyncRateLimit(middleware.SyncTypeDupeScan, 0),
				syncCtl.ScanDupes)

			// GET /api/v1/sync/status
			sync.GET("/status", syncCtl.TaskStatus)
		}

		// product 商品组
		products := api.Group("/products")
		{
			products.GET("", productCtl.ListProducts)
			products.GET("/:id", productCtl.GetProduct)
		}

		// order 订单组
		orders := api.Group("/orders")
		{
			orders.GET("", orderCtl.ListOrders)
			orders.POST("/:id/push", orderCtl.PushOrder)
		}
	}
}
