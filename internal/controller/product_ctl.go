package controller

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/NickMkrtchyan/rankup-square/internal/api/dto"
	"github.com/NickMkrtchyan/rankup-square/internal/model"
	"github.com/NickMkrtchyan/rankup-square/internal/repository"
)

// ProductController 商品控制器
type ProductController struct {
	productRepo repository.ProductRepository
	mappingRepo repository.MappingRepository
	gtinMetaKey string
}

// NewProductController 创建商品控制器
func NewProductController(
	productRepo repository.ProductRepository,
	mappingRepo repository.MappingRepository,
	gtinMetaKey string,
) *ProductController {
	return &ProductController{
		productRepo: productRepo,
		mappingRepo: mappingRepo,
		gtinMetaKey: gtinMetaKey,
	}
}

// ==================== Handler 实现 ====================

// ListProducts 商品列表
// @Summary 商品列表（含远端映射状态）
// @Tags Product
// @Param status query string false "商品状态"
// @Param category_id query int false "分类 ID"
// @Param keyword query string false "名称/SKU 关键字"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (c *ProductController) ListProducts(ctx *gin.Context) {
	var req dto.ListProductsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, gin.H{"code": 400, "message": "无效的查询参数"})
		return
	}

	products, total, err := c.productRepo.List(ctx.Request.Context(), repository.ProductFilter{
		Status:     req.Status,
		CategoryID: req.CategoryID,
		Keyword:    req.Keyword,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	list := make([]dto.ProductListItem, len(products))
	for i := range products {
		list[i] = c.toListItem(ctx.Request.Context(), &products[i])
	}

	ctx.JSON(200, gin.H{
		"code": 200,
		"data": dto.ListProductsResponse{Total: total, List: list},
	})
}

// GetProduct 商品详情
// @Summary 商品详情
// @Tags Product
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/{id} [get]
func (c *ProductController) GetProduct(ctx *gin.Context) {
	productID := parseID(ctx, "id")
	if productID == 0 {
		return
	}

	product, err := c.productRepo.GetByID(ctx.Request.Context(), productID)
	if err != nil {
		ctx.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
		return
	}

	ctx.JSON(200, gin.H{
		"code": 200,
		"data": c.toListItem(ctx.Request.Context(), product),
	})
}

// toListItem 组装列表项，附带远端映射
func (c *ProductController) toListItem(ctx context.Context, p *model.Product) dto.ProductListItem {
	item := dto.ProductListItem{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		Price:      p.Price,
		Status:     p.Status,
		CategoryID: p.CategoryID,
		Tags:       p.Tags,
		GTIN:       p.MetaString(c.gtinMetaKey),
	}
	if m, err := c.mappingRepo.GetProductMapping(ctx, p.ID); err == nil && m != nil {
		item.SquareItemID = m.SquareItemID
		item.SquareVarID = m.SquareVarID
	}
	return item
}
