package service

import (
	"context"

	"github.com/NickMkrtchyan/rankup-square/pkg/square"
)

// ==================== 依赖接口 ====================

// CatalogAPI 远端目录能力边界
// 同步逻辑只依赖这组方法，不关心 HTTP 细节，测试时用假实现替换
type CatalogAPI interface {
	ListVariations(ctx context.Context, cursor string) (*square.ListCatalogResp, error)
	RetrieveObject(ctx context.Context, id string, includeRelated bool) (*square.RetrieveObjectResp, error)
	SearchVariationsBySKU(ctx context.Context, sku string) (*square.SearchCatalogResp, error)
	BatchUpsert(ctx context.Context, objects []square.CatalogObject) (*square.BatchUpsertResp, error)
	CreateOrder(ctx context.Context, order square.Order) (*square.CreateOrderResp, error)
}

var _ CatalogAPI = (*square.Client)(nil)
