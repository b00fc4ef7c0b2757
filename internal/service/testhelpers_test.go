package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
	"github.com/NickMkrtchyan/rankup-square/pkg/square"
)

// ==================== 假远端目录 ====================

// fakeCatalog 内存版 CatalogAPI，测试脚本化远端行为
type fakeCatalog struct {
	objects       map[string]square.CatalogObject   // RetrieveObject 数据源
	searchResults map[string][]square.CatalogObject // sku -> 命中
	searchErr     error
	listPages     []*square.ListCatalogResp

	batches    [][]square.CatalogObject // BatchUpsert 记录
	upsertErrs []error                  // 按调用次序弹出，nil 表示成功
	orderReqs  []square.Order
	orderErr   error

	retrieveCalls int
	searchCalls   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		objects:       map[string]square.CatalogObject{},
		searchResults: map[string][]square.CatalogObject{},
	}
}

// fakeRealID 假远端给占位 id 分配的真实 id
func fakeRealID(clientID string) string {
	return "SQ-" + strings.TrimLeft(clientID, "#")
}

func (f *fakeCatalog) ListVariations(ctx context.Context, cursor string) (*square.ListCatalogResp, error) {
	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(cursor)
	}
	if idx >= len(f.listPages) {
		return &square.ListCatalogResp{}, nil
	}
	return f.listPages[idx], nil
}

func (f *fakeCatalog) RetrieveObject(ctx context.Context, id string, includeRelated bool) (*square.RetrieveObjectResp, error) {
	f.retrieveCalls++
	obj, ok := f.objects[id]
	if !ok {
		return nil, square.ErrNotFound
	}
	return &square.RetrieveObjectResp{Object: &obj}, nil
}

func (f *fakeCatalog) SearchVariationsBySKU(ctx context.Context, sku string) (*square.SearchCatalogResp, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &square.SearchCatalogResp{Objects: f.searchResults[sku]}, nil
}

func (f *fakeCatalog) BatchUpsert(ctx context.Context, objects []square.CatalogObject) (*square.BatchUpsertResp, error) {
	f.batches = append(f.batches, objects)
	if len(f.upsertErrs) > 0 {
		err := f.upsertErrs[0]
		f.upsertErrs = f.upsertErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	resp := &square.BatchUpsertResp{}
	for _, obj := range objects {
		if square.IsPlaceholderID(obj.ID) {
			resp.IDMappings = append(resp.IDMappings, square.IDMapping{
				ClientObjectID: obj.ID,
				ObjectID:       fakeRealID(obj.ID),
			})
		}
	}
	return resp, nil
}

func (f *fakeCatalog) CreateOrder(ctx context.Context, order square.Order) (*square.CreateOrderResp, error) {
	f.orderReqs = append(f.orderReqs, order)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &square.CreateOrderResp{
		Order: &square.OrderData{
			ID:          "SQORD-" + strconv.Itoa(len(f.orderReqs)),
			LocationID:  order.LocationID,
			ReferenceID: order.ReferenceID,
		},
	}, nil
}

// 对象构造快捷方式

func catalogObjects(objs ...square.CatalogObject) []square.CatalogObject {
	return objs
}

func fakeVariation(id string, version int64, itemID, sku string) square.CatalogObject {
	return square.CatalogObject{
		Type:    square.ObjectTypeVariation,
		ID:      id,
		Version: &version,
		ItemVariationData: &square.ItemVariationData{
			ItemID: itemID,
			SKU:    sku,
		},
	}
}

func fakeItem(id string, version int64, name string) square.CatalogObject {
	return square.CatalogObject{
		Type:    square.ObjectTypeItem,
		ID:      id,
		Version: &version,
		ItemData: &square.ItemData{
			Name: name,
		},
	}
}

// ==================== 假仓储 ====================

type fakeMappingRepo struct {
	products map[int64]*model.ProductMapping
	cats     map[int64]string
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{
		products: map[int64]*model.ProductMapping{},
		cats:     map[int64]string{},
	}
}

func (f *fakeMappingRepo) GetProductMapping(ctx context.Context, productID int64) (*model.ProductMapping, error) {
	m, ok := f.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMappingRepo) row(productID int64) *model.ProductMapping {
	m, ok := f.products[productID]
	if !ok {
		m = &model.ProductMapping{ProductID: productID}
		f.products[productID] = m
	}
	return m
}

func (f *fakeMappingRepo) SaveProductItemID(ctx context.Context, productID int64, itemID string) error {
	f.row(productID).SquareItemID = itemID
	return nil
}

func (f *fakeMappingRepo) SaveProductVarID(ctx context.Context, productID int64, varID string) error {
	f.row(productID).SquareVarID = varID
	return nil
}

func (f *fakeMappingRepo) ClearProductItemID(ctx context.Context, productID int64) error {
	if m, ok := f.products[productID]; ok {
		m.SquareItemID = ""
	}
	return nil
}

func (f *fakeMappingRepo) ClearProductVarID(ctx context.Context, productID int64) error {
	if m, ok := f.products[productID]; ok {
		m.SquareVarID = ""
	}
	return nil
}

func (f *fakeMappingRepo) DeleteProductMapping(ctx context.Context, productID int64) error {
	delete(f.products, productID)
	return nil
}

func (f *fakeMappingRepo) GetCategoryMapping(ctx context.Context, categoryID int64) (*model.CategoryMapping, error) {
	id, ok := f.cats[categoryID]
	if !ok {
		return nil, nil
	}
	return &model.CategoryMapping{CategoryID: categoryID, SquareCatID: id}, nil
}

func (f *fakeMappingRepo) SaveCategoryMapping(ctx context.Context, categoryID int64, squareCatID string) error {
	f.cats[categoryID] = squareCatID
	return nil
}

var _ repository.MappingRepository = (*fakeMappingRepo)(nil)

// ---------- 商品 ----------

type fakeProductRepo struct {
	byID   map[int64]*model.Product
	nextID int64
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	f := &fakeProductRepo{byID: map[int64]*model.Product{}, nextID: 1}
	for _, p := range products {
		_ = f.Create(context.Background(), p)
	}
	return f
}

func (f *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.ID == 0 {
		product.ID = f.nextID
		f.nextID++
	} else if product.ID >= f.nextID {
		f.nextID = product.ID + 1
	}
	f.byID[product.ID] = product
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	for _, p := range f.byID {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *model.Product) error {
	f.byID[product.ID] = product
	return nil
}

func (f *fakeProductRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) ListPublished(ctx context.Context) ([]model.Product, error) {
	var list []model.Product
	for id := int64(1); id < f.nextID; id++ {
		if p, ok := f.byID[id]; ok && p.Status == model.ProductStatusPublish {
			list = append(list, *p)
		}
	}
	return list, nil
}

func (f *fakeProductRepo) UpsertBySKU(ctx context.Context, product *model.Product) error {
	existing, _ := f.GetBySKU(ctx, product.SKU)
	if existing != nil {
		product.ID = existing.ID
	}
	return f.Create(ctx, product)
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

// ---------- 分类 ----------

type fakeCategoryRepo struct {
	byID   map[int64]*model.Category
	nextID int64
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{byID: map[int64]*model.Category{}, nextID: 1}
}

func (f *fakeCategoryRepo) add(name string) *model.Category {
	cat := &model.Category{Name: name}
	cat.ID = f.nextID
	f.nextID++
	f.byID[cat.ID] = cat
	return cat
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	return f.byID[id], nil
}

func (f *fakeCategoryRepo) GetByName(ctx context.Context, name string) (*model.Category, error) {
	for _, c := range f.byID {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryRepo) GetOrCreateByName(ctx context.Context, name string) (*model.Category, error) {
	if c, _ := f.GetByName(ctx, name); c != nil {
		return c, nil
	}
	return f.add(name), nil
}

func (f *fakeCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	for _, c := range f.byID {
		list = append(list, *c)
	}
	return list, nil
}

var _ repository.CategoryRepository = (*fakeCategoryRepo)(nil)

// ---------- 订单 ----------

type fakeOrderRepo struct {
	byID   map[int64]*model.Order
	nextID int64
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{byID: map[int64]*model.Order{}, nextID: 1}
	for _, o := range orders {
		_ = f.Create(context.Background(), o)
	}
	return f
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	if order.ID == 0 {
		order.ID = f.nextID
		f.nextID++
	} else if order.ID >= f.nextID {
		f.nextID = order.ID + 1
	}
	f.byID[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return f.byID[id], nil
}

func (f *fakeOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if o, ok := f.byID[id]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeOrderRepo) ListNeedingPush(ctx context.Context, limit int) ([]model.Order, error) {
	var list []model.Order
	for id := int64(1); id < f.nextID; id++ {
		if o, ok := f.byID[id]; ok && o.NeedsPush() {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (f *fakeOrderRepo) MarkPushed(ctx context.Context, id int64, squareOrderID string) error {
	o, ok := f.byID[id]
	if !ok {
		return nil
	}
	now := time.Now()
	o.SquareOrderID = squareOrderID
	o.SquarePushedAt = &now
	return nil
}

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)
