package service

import (
	"context"
	"testing"

	"github.com/NickMkrtchyan/rankup-square/internal/config"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
)

func newImportFixture(products ...*model.Product) (*ImportService, *fakeCatalog, *fakeProductRepo, *fakeCategoryRepo) {
	api := newFakeCatalog()
	prods := newFakeProductRepo(products...)
	cats := newFakeCategoryRepo()
	cfg := config.SyncConfig{
		GTINMetaKey:   "_global_unique_id",
		Currency:      "USD",
		PriceDecimals: 2,
	}
	return NewImportService(prods, cats, api, cfg), api, prods, cats
}

func TestImport_CreatesProductFromVariation(t *testing.T) {
	svc, api, prods, cats := newImportFixture()

	item := fakeItem("ITEM1", 1, "手冲咖啡")
	item.ItemData.Description = "现磨现冲\nTags: 热饮, 咖啡"
	item.ItemData.CategoryID = "CAT1"
	api.objects["ITEM1"] = item
	api.objects["CAT1"] = square.CatalogObject{
		Type:         square.ObjectTypeCategory,
		ID:           "CAT1",
		CategoryData: &square.CategoryData{Name: "饮品"},
	}

	v := fakeVariation("V1", 1, "ITEM1", "SKU-1")
	v.ItemVariationData.PriceMoney = &square.Money{Amount: 1999, Currency: "USD"}
	v.ItemVariationData.UPC = "0 1234-5678905"
	api.listPages = []*square.ListCatalogResp{
		{Objects: catalogObjects(v)},
	}

	summary, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if summary.Updated != 1 || summary.Errors != 0 {
		t.Fatalf("汇总错误: %+v", summary)
	}

	p, _ := prods.GetBySKU(context.Background(), "SKU-1")
	if p == nil {
		t.Fatal("应按 SKU 创建本地商品")
	}
	if p.Name != "手冲咖啡" {
		t.Errorf("名称应来自父 item: %q", p.Name)
	}
	if p.Price != "19.99" {
		t.Errorf("1999 最小单位应还原为 19.99, got %q", p.Price)
	}
	if p.Status != model.ProductStatusPublish {
		t.Errorf("导入商品应为已发布: %q", p.Status)
	}
	if p.MetaString("_global_unique_id") != "012345678905" {
		t.Errorf("UPC 应清洗后写入 meta: %q", p.MetaString("_global_unique_id"))
	}
	if len(p.Tags) != 2 || p.Tags[0] != "热饮" || p.Tags[1] != "咖啡" {
		t.Errorf("描述 Tags 行应抽取为标签: %v", p.Tags)
	}

	cat, _ := cats.GetByID(context.Background(), p.CategoryID)
	if cat == nil || cat.Name != "饮品" {
		t.Errorf("分类应按名称落地: %+v", cat)
	}
	if len(p.SquareRawData) == 0 {
		t.Error("原始载荷应留档")
	}
}

func TestImport_SkipsVariationWithoutSKU(t *testing.T) {
	svc, api, prods, _ := newImportFixture()

	api.listPages = []*square.ListCatalogResp{
		{Objects: catalogObjects(fakeVariation("V1", 1, "", ""))},
	}

	summary, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if summary.Skipped != 1 || summary.Updated != 0 {
		t.Errorf("无 SKU 变体应跳过: %+v", summary)
	}
	if len(prods.byID) != 0 {
		t.Error("不应创建商品")
	}
}

func TestImport_UpdatesExistingBySKU(t *testing.T) {
	existing := publishedProduct(5, "SKU-1", "旧名字", "1.00")
	svc, api, prods, _ := newImportFixture(existing)

	api.objects["ITEM1"] = fakeItem("ITEM1", 1, "新名字")
	v := fakeVariation("V1", 1, "ITEM1", "SKU-1")
	v.ItemVariationData.PriceMoney = &square.Money{Amount: 250, Currency: "USD"}
	api.listPages = []*square.ListCatalogResp{{Objects: catalogObjects(v)}}

	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}

	if len(prods.byID) != 1 {
		t.Fatalf("同 SKU 应更新而不是新建: %d 个商品", len(prods.byID))
	}
	p, _ := prods.GetBySKU(context.Background(), "SKU-1")
	if p.ID != 5 {
		t.Errorf("本地 id 应保持: %d", p.ID)
	}
	if p.Name != "新名字" || p.Price != "2.50" {
		t.Errorf("字段应更新: name=%q price=%q", p.Name, p.Price)
	}
}

func TestImport_PagesAndItemCache(t *testing.T) {
	svc, api, _, _ := newImportFixture()

	api.objects["ITEM1"] = fakeItem("ITEM1", 1, "共享父")
	v1 := fakeVariation("V1", 1, "ITEM1", "SKU-1")
	v1.ItemVariationData.PriceMoney = &square.Money{Amount: 100, Currency: "USD"}
	v2 := fakeVariation("V2", 1, "ITEM1", "SKU-2")
	v2.ItemVariationData.PriceMoney = &square.Money{Amount: 200, Currency: "USD"}

	// 两页: 第一页游标指向第二页
	api.listPages = []*square.ListCatalogResp{
		{Objects: catalogObjects(v1), Cursor: "1"},
		{Objects: catalogObjects(v2)},
	}

	summary, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if summary.Updated != 2 {
		t.Errorf("两页都应处理: %+v", summary)
	}
	if api.retrieveCalls != 1 {
		t.Errorf("同一父 item 单轮内应只取一次: %d", api.retrieveCalls)
	}
}
