package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/NickMkrtchyan/rankup-square/pkg/square"
)

// ==================== 解析结果 ====================

// ResolvedIdentity 本地商品在远端的权威身份
// ItemIsNew / VarIsNew 为 true 表示远端不存在，需要新建
type ResolvedIdentity struct {
	ItemID      string
	ItemVersion *int64
	ItemIsNew   bool

	VarID      string
	VarVersion *int64
	VarIsNew   bool

	// MappingCorrected 解析结果与缓存映射不一致，调用方应回写修正
	MappingCorrected bool
}

// SKUMatch SKU 精确搜索命中
type SKUMatch struct {
	ItemID     string
	VarID      string
	Duplicates int // 命中总数，>1 说明远端存在重复 SKU
}

// ==================== IdentityResolver ====================

// IdentityResolver 身份解析器
// 决定一个本地商品对应远端的哪一对 (item, variation)。
// 优先级: SKU 精确匹配 > 缓存映射，且解析出的 id 必须逐个远端校验后才可信。
// 纯只读: 映射修正的持久化留给调用方。
type IdentityResolver struct {
	api CatalogAPI
}

// NewIdentityResolver 创建身份解析器
func NewIdentityResolver(api CatalogAPI) *IdentityResolver {
	return &IdentityResolver{api: api}
}

// Resolve 解析本地商品的远端身份
// 任何远端查询失败都降级为“当作新对象”，绝不中断整轮同步
func (r *IdentityResolver) Resolve(ctx context.Context, productID int64, sku, cachedItemID, cachedVarID string) *ResolvedIdentity {
	res := &ResolvedIdentity{
		ItemID: cachedItemID,
		VarID:  cachedVarID,
	}

	// 1. SKU 锚定: 远端搜出来的身份覆盖缓存
	if match := r.FindBySKU(ctx, sku, cachedItemID); match != nil {
		if match.Duplicates > 1 {
			log.Printf("[IdentityResolver] ⚠️ 远端存在重复 SKU，已按启发式择一 sku=%s 命中数=%d product_id=%d",
				sku, match.Duplicates, productID)
		}
		if match.ItemID != "" {
			res.ItemID = match.ItemID
		}
		if match.VarID != "" {
			res.VarID = match.VarID
		}
	}

	// 2. 校验变体；父 item 以远端记录为准
	if res.VarID != "" {
		info := r.lookupVariation(ctx, res.VarID)
		if info == nil {
			res.VarID = ""
		} else {
			res.VarVersion = info.Version
			if info.ParentItemID != "" {
				res.ItemID = info.ParentItemID
			}
		}
	}

	// 3. 校验 item
	if res.ItemID != "" {
		version, exists := r.lookupItemVersion(ctx, res.ItemID)
		if exists {
			res.ItemVersion = version
		} else if res.VarID == "" {
			// item 与变体都查不到，整对映射作废
			res.ItemID = ""
		}
		// 变体还在而父 item 查不到时保留 id: 更新路径不会动 item
	}

	// 4. 新 item 强制新变体: 远端变体不能换父
	res.ItemIsNew = res.ItemID == ""
	if res.ItemIsNew && res.VarID != "" {
		log.Printf("[IdentityResolver] item 需新建，放弃残留变体 id product_id=%d var_id=%s", productID, res.VarID)
		res.VarID = ""
		res.VarVersion = nil
	}
	res.VarIsNew = res.VarID == ""

	res.MappingCorrected = res.ItemID != cachedItemID || res.VarID != cachedVarID
	return res
}

// ==================== SKU 搜索 ====================

// FindBySKU 按 SKU 精确搜索远端变体
// 多命中时: 优先父 item 等于 preferItemID 的命中，否则取 version 最高者
// 搜索失败降级为无命中
func (r *IdentityResolver) FindBySKU(ctx context.Context, sku, preferItemID string) *SKUMatch {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil
	}

	resp, err := r.api.SearchVariationsBySKU(ctx, sku)
	if err != nil {
		log.Printf("[IdentityResolver] SKU 搜索失败，忽略远端锚定 sku=%s err=%v", sku, err)
		return nil
	}

	const preferLock = int64(1) << 62

	var (
		best    *square.CatalogObject
		bestVer = int64(-1)
		count   int
	)
	for i := range resp.Objects {
		obj := &resp.Objects[i]
		if obj.Type != square.ObjectTypeVariation || obj.ItemVariationData == nil {
			continue
		}
		count++

		if preferItemID != "" && obj.ItemVariationData.ItemID == preferItemID {
			best = obj
			bestVer = preferLock
			continue
		}
		var ver int64
		if obj.Version != nil {
			ver = *obj.Version
		}
		if ver > bestVer {
			best = obj
			bestVer = ver
		}
	}
	if best == nil {
		return nil
	}
	return &SKUMatch{
		ItemID:     best.ItemVariationData.ItemID,
		VarID:      best.ID,
		Duplicates: count,
	}
}

// ==================== 远端点查 ====================

type variationLookup struct {
	Version      *int64
	ParentItemID string
}

// lookupVariation 查询变体版本与父 item；不存在或查询失败返回 nil
func (r *IdentityResolver) lookupVariation(ctx context.Context, varID string) *variationLookup {
	resp, err := r.api.RetrieveObject(ctx, varID, false)
	if err != nil {
		if !errors.Is(err, square.ErrNotFound) {
			log.Printf("[IdentityResolver] 变体查询失败，按不存在处理 var_id=%s err=%v", varID, err)
		}
		return nil
	}
	if resp.Object == nil || resp.Object.Type != square.ObjectTypeVariation {
		return nil
	}
	info := &variationLookup{Version: resp.Object.Version}
	if resp.Object.ItemVariationData != nil {
		info.ParentItemID = resp.Object.ItemVariationData.ItemID
	}
	return info
}

// lookupItemVersion 查询 item 版本；第二个返回值表示对象是否存在
func (r *IdentityResolver) lookupItemVersion(ctx context.Context, itemID string) (*int64, bool) {
	resp, err := r.api.RetrieveObject(ctx, itemID, false)
	if err != nil {
		if !errors.Is(err, square.ErrNotFound) {
			log.Printf("[IdentityResolver] item 查询失败，按不存在处理 item_id=%s err=%v", itemID, err)
		}
		return nil, false
	}
	if resp.Object == nil || resp.Object.Type != square.ObjectTypeItem {
		return nil, false
	}
	return resp.Object.Version, true
}
