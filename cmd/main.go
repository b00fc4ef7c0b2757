package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/controller"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
	"github.com/NickMkrtchyan/rankup-square/internal/router"
	"github.com/NickMkrtchyan/rankup-square/internal/service"
	"github.com/NickMkrtchyan/rankup-square/internal/task"
	"github.com/NickMkrtchyan/rankup-square/pkg/database"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
)

// @title RankUp Square 同步服务 API
// @version 1.0
// @description 本地商品目录与 Square Catalog 的双向同步服务
// @BasePath /
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(db, cfg)

	// 4. 启动定时任务
	initTasks(deps, cfg)

	// 5. 注册路由并启动服务
	r := gin.Default()
	router.InitRoutes(r, deps.Controllers.Sync, deps.Controllers.Product, deps.Controllers.Order)

	startServer(r, cfg.ServerPort, deps.TaskManager)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Square      *square.Client
	Repos       *Repositories
	Services    *Services
	TaskManager *task.TaskManager
	Controllers *Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Product  repository.ProductRepository
	Category repository.CategoryRepository
	Mapping  repository.MappingRepository
	Order    repository.OrderRepository
}

// Services 服务集合
type Services struct {
	Resolver  *service.IdentityResolver
	Reconcile *service.ReconcileService
	Import    *service.ImportService
	OrderPush *service.OrderPushService
}

// Controllers 控制器集合
type Controllers struct {
	Sync    *controller.SyncController
	Product *controller.ProductController
	Order   *controller.OrderController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(cfg.DatabaseDSN,
		// Catalog
		&model.Product{}, &model.Category{},
		// Mapping
		&model.ProductMapping{}, &model.CategoryMapping{},
		// Order
		&model.Order{}, &model.OrderItem{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB, cfg *config.Config) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Product:  repository.NewProductRepository(db),
		Category: repository.NewCategoryRepository(db),
		Mapping:  repository.NewMappingRepository(db),
		Order:    repository.NewOrderRepository(db),
	}

	// -------- Square 客户端 --------
	client := square.NewClient(square.Config{
		AccessToken: cfg.Square.AccessToken,
		Environment: cfg.Square.Environment,
		APIVersion:  cfg.Square.APIVersion,
		LocationID:  cfg.Square.LocationID,
	})
	if !client.Ready() {
		log.Println("⚠️ [Main] 未配置 Square 访问令牌，远端调用将全部失败")
	}

	// -------- 业务服务 --------
	resolver := service.NewIdentityResolver(client)
	services := &Services{
		Resolver:  resolver,
		Reconcile: service.NewReconcileService(repos.Product, repos.Category, repos.Mapping, resolver, client, cfg.Sync),
		Import:    service.NewImportService(repos.Product, repos.Category, client, cfg.Sync),
		OrderPush: service.NewOrderPushService(repos.Order, client, cfg.Square.LocationID, cfg.Sync),
	}

	// -------- 任务管理器 --------
	taskManager := task.NewTaskManager(&task.TaskManagerDeps{
		ReconcileService: services.Reconcile,
		ImportService:    services.Import,
		OrderPushService: services.OrderPush,
	}, cfg.Sync)

	// -------- Controller 层 --------
	controllers := &Controllers{
		Sync:    controller.NewSyncController(taskManager),
		Product: controller.NewProductController(repos.Product, repos.Mapping, cfg.Sync.GTINMetaKey),
		Order:   controller.NewOrderController(repos.Order, services.OrderPush),
	}

	return &Dependencies{
		DB:          db,
		Square:      client,
		Repos:       repos,
		Services:    services,
		TaskManager: taskManager,
		Controllers: controllers,
	}
}

// initTasks 启动定时任务
func initTasks(deps *Dependencies, cfg *config.Config) {
	deps.TaskManager.Start()
	log.Printf("定时任务已启动 (push=%v pull=%v orders=%v)",
		cfg.Sync.PushEnabled, cfg.Sync.PullEnabled, cfg.Sync.OrdersEnabled)
}

// ==================== 服务启动 ====================

// startServer 启动服务并处理优雅退出
func startServer(r *gin.Engine, port string, taskManager *task.TaskManager) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 先停定时任务，避免关闭途中又起新一轮同步
	taskManager.Stop()

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
