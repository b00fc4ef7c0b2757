package service

import (
	"context"
	"testing"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
)

// ==================== 测试装置 ====================

type reconcileFixture struct {
	svc      *ReconcileService
	api      *fakeCatalog
	mappings *fakeMappingRepo
	products *fakeProductRepo
	cats     *fakeCategoryRepo
}

func newReconcileFixture(updateOnly bool, products ...*model.Product) *reconcileFixture {
	api := newFakeCatalog()
	mappings := newFakeMappingRepo()
	prods := newFakeProductRepo(products...)
	cats := newFakeCategoryRepo()
	cfg := config.SyncConfig{
		UpdateOnly:    updateOnly,
		GTINMetaKey:   "_global_unique_id",
		Currency:      "USD",
		PriceDecimals: 2,
	}
	return &reconcileFixture{
		svc:      NewReconcileService(prods, cats, mappings, NewIdentityResolver(api), api, cfg),
		api:      api,
		mappings: mappings,
		products: prods,
		cats:     cats,
	}
}

func publishedProduct(id int64, sku, name, price string) *model.Product {
	p := &model.Product{
		SKU:    sku,
		Name:   name,
		Price:  price,
		Status: model.ProductStatusPublish,
	}
	p.ID = id
	return p
}

func staleRefError(detail string) error {
	return &square.RequestError{
		StatusCode: 400,
		Errors: []square.APIError{{
			Category: "INVALID_REQUEST_ERROR",
			Code:     square.ErrCodeInvalidValue,
			Detail:   detail,
		}},
	}
}

// ==================== 只更新模式 ====================

func TestReconcile_UpdateOnlySkipsMissingRemote(t *testing.T) {
	f := newReconcileFixture(true, publishedProduct(1, "ABC123", "测试商品", "9.99"))

	outcome, err := f.svc.ReconcileProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileProduct() error = %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("远端不存在且只更新模式应跳过, got %s", outcome)
	}
	if len(f.api.batches) != 0 {
		t.Errorf("跳过时不应提交任何批次: %d", len(f.api.batches))
	}
}

// 典型更新场景: 价格 19.99 -> 1999 最小单位，GTIN 带上，变体单发且不带父引用
func TestReconcile_UpdateOnlyVariationPayload(t *testing.T) {
	p := publishedProduct(1, "ABC123", "测试商品", "19.99")
	p.SetMeta("_global_unique_id", "012345678905")
	f := newReconcileFixture(true, p)

	f.mappings.products[1] = &model.ProductMapping{ProductID: 1, SquareItemID: "ITEM1", SquareVarID: "VAR1"}
	f.api.objects["ITEM1"] = fakeItem("ITEM1", 3, "测试商品")
	f.api.objects["VAR1"] = fakeVariation("VAR1", 7, "ITEM1", "ABC123")
	f.api.searchResults["ABC123"] = catalogObjects(fakeVariation("VAR1", 7, "ITEM1", "ABC123"))

	outcome, err := f.svc.ReconcileProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileProduct() error = %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("outcome = %s, want updated", outcome)
	}
	if len(f.api.batches) != 1 {
		t.Fatalf("应恰好提交一个批次: %d", len(f.api.batches))
	}

	batch := f.api.batches[0]
	if len(batch) != 1 {
		t.Fatalf("只更新模式下存量变体应单发: %d 个对象", len(batch))
	}
	v := batch[0]
	if v.Type != square.ObjectTypeVariation || v.ID != "VAR1" {
		t.Errorf("变体对象错误: %+v", v)
	}
	if v.Version == nil || *v.Version != 7 {
		t.Errorf("更新必须携带版本号: %+v", v.Version)
	}
	if v.ItemVariationData.ItemID != "" {
		t.Errorf("更新存量变体不得携带父引用: %q", v.ItemVariationData.ItemID)
	}
	if v.ItemVariationData.PriceMoney.Amount != 1999 {
		t.Errorf("19.99 应换算为 1999, got %d", v.ItemVariationData.PriceMoney.Amount)
	}
	if v.ItemVariationData.UPC != "012345678905" {
		t.Errorf("GTIN 应随变体提交: %q", v.ItemVariationData.UPC)
	}
}

// ==================== 创建路径 ====================

func TestReconcile_CreatePathWithCategory(t *testing.T) {
	p := publishedProduct(1, "NEW-1", "新商品", "5.00")
	f := newReconcileFixture(false, p)
	cat := f.cats.add("饮品")
	p.CategoryID = cat.ID

	outcome, err := f.svc.ReconcileProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileProduct() error = %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("outcome = %s", outcome)
	}

	batch := f.api.batches[0]
	if len(batch) != 3 {
		t.Fatalf("新建应包含 分类+item+变体 三个对象: %d", len(batch))
	}

	catObj, itemObj, varObj := batch[0], batch[1], batch[2]
	if catObj.Type != square.ObjectTypeCategory || catObj.ID != "#CAT-1" {
		t.Errorf("分类占位对象错误: %+v", catObj)
	}
	if itemObj.ID != "#ITEM-1" || itemObj.ItemData.CategoryID != "#CAT-1" {
		t.Errorf("item 应通过占位 id 引用同批分类: %+v", itemObj)
	}
	if itemObj.Version != nil {
		t.Errorf("新建对象不得携带版本号")
	}
	if varObj.ID != "#VAR-1" || varObj.ItemVariationData.ItemID != "#ITEM-1" {
		t.Errorf("变体应通过占位 id 引用同批 item: %+v", varObj)
	}

	// 远端分配的真实 id 应全部回写
	m, _ := f.mappings.GetProductMapping(context.Background(), 1)
	if m == nil || m.SquareItemID != "SQ-ITEM-1" || m.SquareVarID != "SQ-VAR-1" {
		t.Errorf("商品映射回写错误: %+v", m)
	}
	cm, _ := f.mappings.GetCategoryMapping(context.Background(), cat.ID)
	if cm == nil || cm.SquareCatID != "SQ-CAT-1" {
		t.Errorf("分类映射回写错误: %+v", cm)
	}
}

func TestReconcile_CategoryCreatedOncePerRun(t *testing.T) {
	p1 := publishedProduct(1, "A-1", "商品1", "1.00")
	p2 := publishedProduct(2, "A-2", "商品2", "2.00")
	f := newReconcileFixture(false, p1, p2)
	cat := f.cats.add("饮品")
	p1.CategoryID = cat.ID
	p2.CategoryID = cat.ID

	if _, err := f.svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}

	created := 0
	for _, batch := range f.api.batches {
		for _, obj := range batch {
			if obj.Type == square.ObjectTypeCategory {
				created++
			}
		}
	}
	if created != 1 {
		t.Errorf("同一分类一轮内应只创建一次, got %d", created)
	}
}

// ==================== 失效引用恢复 ====================

func TestReconcile_StaleReferenceRetryOnce(t *testing.T) {
	p := publishedProduct(1, "ABC123", "测试商品", "19.99")
	f := newReconcileFixture(true, p)

	// 缓存与搜索都指向已删除的旧对象: 校验通过但提交被拒
	f.mappings.products[1] = &model.ProductMapping{ProductID: 1, SquareItemID: "ITEM_OLD", SquareVarID: "VAR_OLD"}
	f.api.objects["ITEM_OLD"] = fakeItem("ITEM_OLD", 3, "旧商品")
	f.api.objects["VAR_OLD"] = fakeVariation("VAR_OLD", 7, "ITEM_OLD", "ABC123")
	f.api.upsertErrs = []error{staleRefError("Invalid Object with Id VAR_OLD"), nil}

	// 重锚定目标: 远端重建后的新对象
	reanchored := fakeVariation("VAR_NEW", 1, "ITEM_NEW", "ABC123")
	f.api.objects["VAR_NEW"] = reanchored
	f.api.searchResults["ABC123"] = catalogObjects(reanchored)

	outcome, err := f.svc.ReconcileProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileProduct() error = %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("失效引用恢复后应成功: %s", outcome)
	}
	if len(f.api.batches) != 2 {
		t.Fatalf("应恰好重试一次: %d 个批次", len(f.api.batches))
	}

	retry := f.api.batches[1]
	if len(retry) != 1 || retry[0].ID != "VAR_NEW" {
		t.Errorf("重试应为变体单发且指向重锚定对象: %+v", retry)
	}
	if retry[0].Version == nil || *retry[0].Version != 1 {
		t.Errorf("重试应携带重锚定变体的版本: %+v", retry[0].Version)
	}

	m, _ := f.mappings.GetProductMapping(context.Background(), 1)
	if m == nil || m.SquareItemID != "ITEM_NEW" || m.SquareVarID != "VAR_NEW" {
		t.Errorf("重锚定结果应回写映射: %+v", m)
	}
}

func TestReconcile_StaleReferenceRetryFailsOnce(t *testing.T) {
	p := publishedProduct(1, "ABC123", "测试商品", "19.99")
	f := newReconcileFixture(true, p)

	f.mappings.products[1] = &model.ProductMapping{ProductID: 1, SquareItemID: "ITEM_OLD", SquareVarID: "VAR_OLD"}
	f.api.objects["ITEM_OLD"] = fakeItem("ITEM_OLD", 3, "旧商品")
	f.api.objects["VAR_OLD"] = fakeVariation("VAR_OLD", 7, "ITEM_OLD", "ABC123")
	f.api.objects["VAR_NEW"] = fakeVariation("VAR_NEW", 1, "ITEM_NEW", "ABC123")
	f.api.searchResults["ABC123"] = catalogObjects(fakeVariation("VAR_NEW", 1, "ITEM_NEW", "ABC123"))

	// 两次提交都被拒: 不得再递归重试
	f.api.upsertErrs = []error{
		staleRefError("Invalid Object with Id VAR_OLD"),
		staleRefError("Invalid Object with Id VAR_NEW"),
	}

	outcome, err := f.svc.ReconcileProduct(context.Background(), 1)
	if err == nil {
		t.Fatal("重试仍失败应报错")
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
	if len(f.api.batches) != 2 {
		t.Errorf("恰好一次重试，不得递归: %d 个批次", len(f.api.batches))
	}

	// 重试也被拒时映射必须保持清空: 被拒的 id 写回去会让下一轮重蹈覆辙
	m, _ := f.mappings.GetProductMapping(context.Background(), 1)
	if m != nil && (m.SquareItemID != "" || m.SquareVarID != "") {
		t.Errorf("重试失败后映射应保持清空: %+v", m)
	}
}

// ==================== 全量同步汇总 ====================

func TestSyncAll_Summary(t *testing.T) {
	ok := publishedProduct(1, "OK-1", "正常商品", "3.50")
	noSKU := publishedProduct(2, "", "无锚点", "3.50")
	badPrice := publishedProduct(3, "BAD-1", "坏价格", "not-a-number")
	f := newReconcileFixture(false, ok, noSKU, badPrice)

	summary, err := f.svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if summary.Updated != 1 || summary.Skipped != 2 || summary.Errors != 0 {
		t.Errorf("汇总错误: %+v", summary)
	}
}

func TestSyncAll_NegativePriceSkipped(t *testing.T) {
	p := publishedProduct(1, "NEG-1", "负价格", "-1.00")
	f := newReconcileFixture(false, p)

	summary, err := f.svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if summary.Skipped != 1 || summary.Updated != 0 {
		t.Errorf("负价格应跳过: %+v", summary)
	}
}
