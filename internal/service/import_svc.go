package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/lib/pq"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
	"github.com/NickMkrtchyan/rankup-square/pkg/utils"
)

// ==================== ImportService ====================

// ImportService 入站导入器: 远端目录 -> 本地商品
// 以 SKU 为锚点 upsert，无 SKU 的变体一律跳过
type ImportService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	api          CatalogAPI
	cfg          config.SyncConfig
}

// NewImportService 创建入站导入器
func NewImportService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	api CatalogAPI,
	cfg config.SyncConfig,
) *ImportService {
	return &ImportService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		api:          api,
		cfg:          cfg,
	}
}

// itemDetail 父 item 的展开信息（单轮内缓存，多个变体常挂同一 item）
type itemDetail struct {
	Name         string
	Description  string
	CategoryName string
}

// SyncAll 全量入站导入: 按游标翻页遍历远端所有变体
func (s *ImportService) SyncAll(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	itemCache := map[string]*itemDetail{}
	cursor := ""
	page := 0

	log.Printf("[ImportService] 开始入站导入")
	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		resp, err := s.api.ListVariations(ctx, cursor)
		if err != nil {
			summary.Errors++
			log.Printf("[ImportService] ❌ 拉取目录失败 cursor=%q err=%v", cursor, err)
			break
		}
		page++

		for i := range resp.Objects {
			outcome := s.importOne(ctx, itemCache, &resp.Objects[i])
			switch outcome {
			case OutcomeUpdated:
				summary.Updated++
			case OutcomeSkipped:
				summary.Skipped++
			default:
				summary.Errors++
			}
		}

		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}

	log.Printf("[ImportService] 入站导入完成 pages=%d updated=%d skipped=%d errors=%d",
		page, summary.Updated, summary.Skipped, summary.Errors)
	return summary, nil
}

// importOne 单变体落库
func (s *ImportService) importOne(ctx context.Context, itemCache map[string]*itemDetail, obj *square.CatalogObject) Outcome {
	if obj.Type != square.ObjectTypeVariation || obj.ItemVariationData == nil {
		return OutcomeSkipped
	}
	sku := strings.TrimSpace(obj.ItemVariationData.SKU)
	if sku == "" {
		// 没有 SKU 无法锚定，不做猜测
		return OutcomeSkipped
	}

	// 父 item 展开: 名称/描述/分类
	detail := &itemDetail{Name: "Square Product"}
	if parentID := obj.ItemVariationData.ItemID; parentID != "" {
		detail = s.lookupItem(ctx, itemCache, parentID)
	}

	product, err := s.productRepo.GetBySKU(ctx, sku)
	if err != nil {
		log.Printf("[ImportService] ❌ 查询本地商品失败 sku=%s err=%v", sku, err)
		return OutcomeFailed
	}
	if product == nil {
		product = &model.Product{
			SKU:    sku,
			Status: model.ProductStatusPublish,
		}
	}

	product.Name = detail.Name
	product.Description = detail.Description

	// 价格: 最小货币单位 -> 十进制文本
	if pm := obj.ItemVariationData.PriceMoney; pm != nil {
		product.Price = utils.MinorUnitsToMoney(pm.Amount, s.cfg.PriceDecimals).StringFixed(s.cfg.PriceDecimals)
	}

	// 分类: 按名称 get-or-create
	if detail.CategoryName != "" {
		if cat, err := s.categoryRepo.GetOrCreateByName(ctx, detail.CategoryName); err == nil {
			product.CategoryID = cat.ID
		} else {
			log.Printf("[ImportService] 分类落库失败 name=%s err=%v", detail.CategoryName, err)
		}
	}

	// 标签: 描述中的 "Tags:" 约定行
	if tags := utils.ExtractTags(detail.Description); len(tags) > 0 {
		product.Tags = pq.StringArray(tags)
	}

	// GTIN: 清洗后写入配置的 meta key
	if gtin := utils.SanitizeGTIN(obj.ItemVariationData.UPC); gtin != "" {
		product.SetMeta(s.cfg.GTINMetaKey, gtin)
	}

	// 原始载荷留档，便于排查导入差异
	if raw, err := json.Marshal(obj); err == nil {
		product.SquareRawData = raw
	}

	// 存量商品走整行更新；新商品走 SKU upsert，并发导入同一 SKU 也不会重复建行
	if product.ID != 0 {
		err = s.productRepo.Update(ctx, product)
	} else {
		err = s.productRepo.UpsertBySKU(ctx, product)
	}
	if err != nil {
		log.Printf("[ImportService] ❌ 商品落库失败 sku=%s err=%v", sku, err)
		return OutcomeFailed
	}
	return OutcomeUpdated
}

// lookupItem 展开父 item，带单轮缓存
func (s *ImportService) lookupItem(ctx context.Context, cache map[string]*itemDetail, itemID string) *itemDetail {
	if d, ok := cache[itemID]; ok {
		return d
	}

	d := &itemDetail{Name: "Square Product"}
	resp, err := s.api.RetrieveObject(ctx, itemID, false)
	if err != nil || resp.Object == nil || resp.Object.ItemData == nil {
		log.Printf("[ImportService] 父 item 查询失败，用默认值 item_id=%s err=%v", itemID, err)
		cache[itemID] = d
		return d
	}

	d.Name = resp.Object.ItemData.Name
	d.Description = resp.Object.ItemData.Description
	if catID := resp.Object.ItemData.CategoryID; catID != "" {
		d.CategoryName = s.lookupCategoryName(ctx, catID)
	}
	cache[itemID] = d
	return d
}

// lookupCategoryName 查远端分类名，查不到返回空串
func (s *ImportService) lookupCategoryName(ctx context.Context, catID string) string {
	resp, err := s.api.RetrieveObject(ctx, catID, false)
	if err != nil || resp.Object == nil || resp.Object.CategoryData == nil {
		return ""
	}
	return resp.Object.CategoryData.Name
}
