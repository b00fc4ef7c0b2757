package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
	"github.com/NickMkrtchyan/rankup-square/pkg/utils"
)

// ==================== 结果类型 ====================

// Outcome 单商品对账结果
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Summary 一轮同步的汇总
type Summary struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// DuplicateSKU 远端重复 SKU 巡检条目
type DuplicateSKU struct {
	ProductID  int64  `json:"product_id"`
	SKU        string `json:"sku"`
	Duplicates int    `json:"duplicates"`
}

// ==================== ReconcileService ====================

// ReconcileService 目录对账器（出站）
// 每个商品独立对账，单个失败不影响其余商品
type ReconcileService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	mappingRepo  repository.MappingRepository
	resolver     *IdentityResolver
	api          CatalogAPI
	cfg          config.SyncConfig
}

// NewReconcileService 创建目录对账器
func NewReconcileService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	mappingRepo repository.MappingRepository,
	resolver *IdentityResolver,
	api CatalogAPI,
	cfg config.SyncConfig,
) *ReconcileService {
	return &ReconcileService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		mappingRepo:  mappingRepo,
		resolver:     resolver,
		api:          api,
		cfg:          cfg,
	}
}

// runState 单轮同步内的共享状态
type runState struct {
	// createdCategories 本轮已随批次提交过创建的分类
	// 防止映射回写失败时同一分类被重复创建
	createdCategories map[int64]bool
}

func newRunState() *runState {
	return &runState{createdCategories: map[int64]bool{}}
}

// ==================== 全量同步 ====================

// SyncAll 全量出站对账: 本地已发布商品逐个推到远端
func (s *ReconcileService) SyncAll(ctx context.Context) (*Summary, error) {
	products, err := s.productRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询待同步商品失败: %w", err)
	}

	summary := &Summary{}
	run := newRunState()
	log.Printf("[ReconcileService] 开始出站同步 候选商品=%d update_only=%v", len(products), s.cfg.UpdateOnly)

	for i := range products {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		outcome, err := s.reconcileOne(ctx, run, &products[i])
		switch {
		case err != nil:
			summary.Errors++
			log.Printf("[ReconcileService] ❌ 商品同步失败 product_id=%d sku=%s err=%v",
				products[i].ID, products[i].SKU, err)
		case outcome == OutcomeUpdated:
			summary.Updated++
		default:
			summary.Skipped++
		}
	}

	log.Printf("[ReconcileService] 出站同步完成 updated=%d skipped=%d errors=%d",
		summary.Updated, summary.Skipped, summary.Errors)
	return summary, nil
}

// ReconcileProduct 单商品对账（手动触发用）
func (s *ReconcileService) ReconcileProduct(ctx context.Context, productID int64) (Outcome, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("查询商品失败: %w", err)
	}
	return s.reconcileOne(ctx, newRunState(), product)
}

// ==================== 单商品对账 ====================

func (s *ReconcileService) reconcileOne(ctx context.Context, run *runState, product *model.Product) (Outcome, error) {
	sku := strings.TrimSpace(product.SKU)
	if sku == "" {
		log.Printf("[ReconcileService] 跳过: 商品无 SKU product_id=%d", product.ID)
		return OutcomeSkipped, nil
	}
	price, err := utils.ParsePrice(product.Price)
	if err != nil {
		log.Printf("[ReconcileService] 跳过: 价格非法 product_id=%d price=%q err=%v", product.ID, product.Price, err)
		return OutcomeSkipped, nil
	}

	// 读缓存映射
	cachedItemID, cachedVarID := "", ""
	m, err := s.mappingRepo.GetProductMapping(ctx, product.ID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("读取映射失败: %w", err)
	}
	if m != nil {
		cachedItemID, cachedVarID = m.SquareItemID, m.SquareVarID
	}

	// 解析远端身份，修正立即回写
	res := s.resolver.Resolve(ctx, product.ID, sku, cachedItemID, cachedVarID)
	if res.MappingCorrected {
		s.persistResolved(ctx, product.ID, cachedItemID, cachedVarID, res)
	}

	// 只更新模式: 远端任一半身份缺失即跳过，绝不创建
	if s.cfg.UpdateOnly && (res.ItemIsNew || res.VarIsNew) {
		log.Printf("[ReconcileService] 跳过: 远端不存在且只更新模式已开 product_id=%d sku=%s item_new=%v var_new=%v",
			product.ID, sku, res.ItemIsNew, res.VarIsNew)
		return OutcomeSkipped, nil
	}

	batch, err := s.buildBatch(ctx, run, product, price, res)
	if err != nil {
		return OutcomeFailed, err
	}

	resp, err := s.api.BatchUpsert(ctx, batch)
	if err != nil {
		if square.IsStaleReferenceError(err) {
			return s.retryAfterStaleReference(ctx, product, sku, price, err)
		}
		s.logBatchFailure(product.ID, batch, err)
		return OutcomeFailed, err
	}

	if len(resp.Errors) > 0 {
		detail, _ := json.Marshal(resp.Errors)
		log.Printf("[ReconcileService] ⚠️ 批次提交成功但带告警 product_id=%d errors=%s", product.ID, detail)
	}
	s.persistIDMappings(ctx, resp)
	return OutcomeUpdated, nil
}

// ==================== 批次组装 ====================

// buildBatch 组装最小提交批次
// 只更新模式下存量变体单发；新建对象通过占位 id 互相引用，远端整批原子落库
func (s *ReconcileService) buildBatch(ctx context.Context, run *runState, product *model.Product, price decimal.Decimal, res *ResolvedIdentity) ([]square.CatalogObject, error) {
	var batch []square.CatalogObject

	itemID := res.ItemID
	if res.ItemIsNew {
		itemID = square.PlaceholderItemPrefix + strconv.FormatInt(product.ID, 10)
	}
	varID := res.VarID
	if res.VarIsNew {
		varID = square.PlaceholderVariationPrefix + strconv.FormatInt(product.ID, 10)
	}

	// item: 只更新模式不动存量 item；无版本号的存量 item 也不动（盲更新会被拒）
	includeItem := res.ItemIsNew || (!s.cfg.UpdateOnly && res.ItemVersion != nil)
	if includeItem {
		data := square.ItemData{
			Name:        product.Name,
			Description: product.Description,
		}
		// 分类只在新建 item 时挂载，存量 item 不回填
		if res.ItemIsNew {
			ref, createName := s.resolveCategoryRef(ctx, run, product)
			if ref != "" {
				data.CategoryID = ref
				if createName != "" {
					catObj, err := square.NewCategoryObject(ref, createName)
					if err != nil {
						return nil, err
					}
					catObj.PresentAtAllLocations = true
					batch = append(batch, catObj)
				}
			}
		}

		obj, err := square.NewItemObject(itemID, data)
		if err != nil {
			return nil, err
		}
		if res.ItemIsNew {
			obj.PresentAtAllLocations = true
		} else {
			obj.Version = res.ItemVersion
		}
		batch = append(batch, obj)
	}

	// 变体
	vdata := square.ItemVariationData{
		Name: "Default",
		SKU:  product.SKU,
		PriceMoney: &square.Money{
			Amount:   utils.MoneyToMinorUnits(price, s.cfg.PriceDecimals),
			Currency: s.cfg.Currency,
		},
	}
	if gtin := utils.SanitizeGTIN(product.MetaString(s.cfg.GTINMetaKey)); gtin != "" {
		vdata.UPC = gtin
	}
	if res.VarIsNew {
		// 父引用只在创建时携带，存量变体不可换父
		vdata.ItemID = itemID
	}

	vobj, err := square.NewVariationObject(varID, vdata)
	if err != nil {
		return nil, err
	}
	if res.VarIsNew {
		vobj.PresentAtAllLocations = true
	} else {
		vobj.Version = res.VarVersion
	}
	batch = append(batch, vobj)

	return batch, nil
}

// resolveCategoryRef 取商品分类的远端引用
// 已映射返回真实 id；未映射且本轮未建过则返回占位 id + 待建分类名
func (s *ReconcileService) resolveCategoryRef(ctx context.Context, run *runState, product *model.Product) (ref, createName string) {
	if product.CategoryID == 0 {
		return "", ""
	}
	cat, err := s.categoryRepo.GetByID(ctx, product.CategoryID)
	if err != nil || cat == nil {
		return "", ""
	}

	if m, err := s.mappingRepo.GetCategoryMapping(ctx, product.CategoryID); err == nil && m != nil && m.SquareCatID != "" {
		return m.SquareCatID, ""
	}
	if run.createdCategories[product.CategoryID] {
		// 已随更早的批次提交过创建，映射可能尚未回写；宁可不挂分类也不重复建
		return "", ""
	}
	run.createdCategories[product.CategoryID] = true
	return square.PlaceholderCategoryPrefix + strconv.FormatInt(product.CategoryID, 10), cat.Name
}

// ==================== 失效引用恢复 ====================

// retryAfterStaleReference 批次因引用已删除的远端 id 被拒时的恢复路径:
// 清空映射 -> 按 SKU 重锚定 -> 变体单发重试，恰好一次，不递归
func (s *ReconcileService) retryAfterStaleReference(ctx context.Context, product *model.Product, sku string, price decimal.Decimal, cause error) (Outcome, error) {
	log.Printf("[ReconcileService] ⚠️ 批次因失效引用被拒，清空映射并按 SKU 重锚定 product_id=%d sku=%s err=%v",
		product.ID, sku, cause)

	if err := s.mappingRepo.DeleteProductMapping(ctx, product.ID); err != nil {
		return OutcomeFailed, fmt.Errorf("清空失效映射失败: %w", err)
	}

	match := s.resolver.FindBySKU(ctx, sku, "")
	if match == nil || match.VarID == "" {
		return OutcomeFailed, fmt.Errorf("失效引用恢复失败，SKU 无远端命中: %w", cause)
	}
	info := s.resolver.lookupVariation(ctx, match.VarID)
	if info == nil {
		return OutcomeFailed, fmt.Errorf("失效引用恢复失败，重锚定变体不可读: %w", cause)
	}

	vdata := square.ItemVariationData{
		Name: "Default",
		SKU:  sku,
		PriceMoney: &square.Money{
			Amount:   utils.MoneyToMinorUnits(price, s.cfg.PriceDecimals),
			Currency: s.cfg.Currency,
		},
	}
	if gtin := utils.SanitizeGTIN(product.MetaString(s.cfg.GTINMetaKey)); gtin != "" {
		vdata.UPC = gtin
	}
	vobj, err := square.NewVariationObject(match.VarID, vdata)
	if err != nil {
		return OutcomeFailed, err
	}
	vobj.Version = info.Version

	resp, err := s.api.BatchUpsert(ctx, []square.CatalogObject{vobj})
	if err != nil {
		// 映射保持清空状态: 重试也被拒的 id 不能写回去
		s.logBatchFailure(product.ID, []square.CatalogObject{vobj}, err)
		return OutcomeFailed, fmt.Errorf("失效引用重试仍失败: %w", err)
	}

	// 重锚定结果只在远端确认后回写
	if match.ItemID != "" {
		if err := s.mappingRepo.SaveProductItemID(ctx, product.ID, match.ItemID); err != nil {
			log.Printf("[ReconcileService] 映射回写失败 product_id=%d err=%v", product.ID, err)
		}
	}
	if err := s.mappingRepo.SaveProductVarID(ctx, product.ID, match.VarID); err != nil {
		log.Printf("[ReconcileService] 映射回写失败 product_id=%d err=%v", product.ID, err)
	}
	s.persistIDMappings(ctx, resp)
	log.Printf("[ReconcileService] ✅ 失效引用恢复成功 product_id=%d var_id=%s", product.ID, match.VarID)
	return OutcomeUpdated, nil
}

// ==================== 映射回写 ====================

// persistResolved 把解析修正回写映射存储
func (s *ReconcileService) persistResolved(ctx context.Context, productID int64, cachedItemID, cachedVarID string, res *ResolvedIdentity) {
	if res.ItemID != cachedItemID {
		var err error
		if res.ItemID == "" {
			err = s.mappingRepo.ClearProductItemID(ctx, productID)
		} else {
			err = s.mappingRepo.SaveProductItemID(ctx, productID, res.ItemID)
		}
		if err != nil {
			log.Printf("[ReconcileService] 映射修正回写失败 product_id=%d err=%v", productID, err)
		}
	}
	if res.VarID != cachedVarID {
		var err error
		if res.VarID == "" {
			err = s.mappingRepo.ClearProductVarID(ctx, productID)
		} else {
			err = s.mappingRepo.SaveProductVarID(ctx, productID, res.VarID)
		}
		if err != nil {
			log.Printf("[ReconcileService] 映射修正回写失败 product_id=%d err=%v", productID, err)
		}
	}
	log.Printf("[ReconcileService] 映射已修正 product_id=%d item=%q var=%q", productID, res.ItemID, res.VarID)
}

// persistIDMappings 把远端分配的真实 id 按占位前缀回写映射存储
func (s *ReconcileService) persistIDMappings(ctx context.Context, resp *square.BatchUpsertResp) {
	for _, m := range resp.IDMappings {
		switch {
		case strings.HasPrefix(m.ClientObjectID, square.PlaceholderItemPrefix):
			if id, ok := parsePlaceholderID(m.ClientObjectID, square.PlaceholderItemPrefix); ok {
				if err := s.mappingRepo.SaveProductItemID(ctx, id, m.ObjectID); err != nil {
					log.Printf("[ReconcileService] item 映射回写失败 product_id=%d err=%v", id, err)
				}
			}
		case strings.HasPrefix(m.ClientObjectID, square.PlaceholderVariationPrefix):
			if id, ok := parsePlaceholderID(m.ClientObjectID, square.PlaceholderVariationPrefix); ok {
				if err := s.mappingRepo.SaveProductVarID(ctx, id, m.ObjectID); err != nil {
					log.Printf("[ReconcileService] 变体映射回写失败 product_id=%d err=%v", id, err)
				}
			}
		case strings.HasPrefix(m.ClientObjectID, square.PlaceholderCategoryPrefix):
			if id, ok := parsePlaceholderID(m.ClientObjectID, square.PlaceholderCategoryPrefix); ok {
				if err := s.mappingRepo.SaveCategoryMapping(ctx, id, m.ObjectID); err != nil {
					log.Printf("[ReconcileService] 分类映射回写失败 category_id=%d err=%v", id, err)
				}
			}
		}
	}
}

func parsePlaceholderID(clientID, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(clientID, prefix), 10, 64)
	return id, err == nil && id > 0
}

// logBatchFailure 失败批次完整落日志，便于离线回放
func (s *ReconcileService) logBatchFailure(productID int64, batch []square.CatalogObject, err error) {
	payload, _ := json.Marshal(batch)
	log.Printf("[ReconcileService] ❌ 批次被拒 product_id=%d err=%v payload=%s", productID, err, payload)
}

// ==================== 重复 SKU 巡检 ====================

// ScanDuplicateSKUs 远端重复 SKU 巡检（只读，不做任何修改）
func (s *ReconcileService) ScanDuplicateSKUs(ctx context.Context) ([]DuplicateSKU, error) {
	products, err := s.productRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}

	var report []DuplicateSKU
	for i := range products {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		sku := strings.TrimSpace(products[i].SKU)
		if sku == "" {
			continue
		}
		match := s.resolver.FindBySKU(ctx, sku, "")
		if match != nil && match.Duplicates > 1 {
			report = append(report, DuplicateSKU{
				ProductID:  products[i].ID,
				SKU:        sku,
				Duplicates: match.Duplicates,
			})
		}
	}
	return report, nil
}
