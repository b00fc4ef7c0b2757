package square

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ==================== Client 远端目录客户端 ====================

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"

	// DefaultAPIVersion 默认 Square-Version，不确定时不要改
	DefaultAPIVersion = "2025-06-20"
)

// Config 客户端配置
type Config struct {
	AccessToken string
	Environment string // production | sandbox
	APIVersion  string
	LocationID  string // 订单推送需要
}

// Client Square API 客户端
// 鉴权头、超时与传输层重试都在这里统一处理，业务层不再触碰 HTTP 细节
type Client struct {
	http       *resty.Client
	token      string
	locationID string
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	base := productionBaseURL
	if cfg.Environment == "sandbox" {
		base = sandboxBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	http := resty.New().
		SetBaseURL(base).
		SetTimeout(45 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Square-Version", version).
		SetHeader("Authorization", "Bearer "+cfg.AccessToken)

	return &Client{
		http:       http,
		token:      cfg.AccessToken,
		locationID: cfg.LocationID,
	}
}

// Ready 凭证是否已配置
func (c *Client) Ready() bool {
	return c.token != ""
}

// Location 配置的 Location ID
func (c *Client) Location() string {
	return c.locationID
}

// ==================== 目录读取 ====================

// ListVariations 按游标分页列出所有 ITEM_VARIATION
func (c *Client) ListVariations(ctx context.Context, cursor string) (*ListCatalogResp, error) {
	var (
		out    ListCatalogResp
		errEnv errorEnvelope
	)

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("types", ObjectTypeVariation).
		SetResult(&out).
		SetError(&errEnv)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get("/v2/catalog/list")
	if err := c.classify(resp, err, &errEnv); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetrieveObject 按 id 查询单个目录对象
// 404 返回 ErrNotFound，调用方据此判定缓存映射已失效
func (c *Client) RetrieveObject(ctx context.Context, id string, includeRelated bool) (*RetrieveObjectResp, error) {
	var (
		out    RetrieveObjectResp
		errEnv errorEnvelope
	)

	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errEnv)
	if includeRelated {
		req.SetQueryParam("include_related_objects", "true")
	}

	resp, err := req.Get("/v2/catalog/object/" + id)
	if err := c.classify(resp, err, &errEnv); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchVariationsBySKU 按 SKU 精确搜索变体 (跨系统关联锚点)
func (c *Client) SearchVariationsBySKU(ctx context.Context, sku string) (*SearchCatalogResp, error) {
	var (
		out    SearchCatalogResp
		errEnv errorEnvelope
	)

	body := SearchCatalogReq{
		ObjectTypes:           []string{ObjectTypeVariation},
		IncludeRelatedObjects: true,
		Query: &SearchQuery{
			ExactQuery: &ExactQuery{
				AttributeName:  "sku",
				AttributeValue: sku,
			},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&errEnv).
		Post("/v2/catalog/search")
	if err := c.classify(resp, err, &errEnv); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 目录写入 ====================

// BatchUpsert 整批原子 upsert
// 幂等键每次生成，批内对象可通过占位 id 互相引用
func (c *Client) BatchUpsert(ctx context.Context, objects []CatalogObject) (*BatchUpsertResp, error) {
	var (
		out    BatchUpsertResp
		errEnv errorEnvelope
	)

	body := BatchUpsertReq{
		IdempotencyKey: uuid.NewString(),
		Batches:        []ObjectBatch{{Objects: objects}},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&errEnv).
		Post("/v2/catalog/batch-upsert")
	if err := c.classify(resp, err, &errEnv); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 订单 ====================

// CreateOrder 创建远端订单 (只追加)
func (c *Client) CreateOrder(ctx context.Context, order Order) (*CreateOrderResp, error) {
	var (
		out    CreateOrderResp
		errEnv errorEnvelope
	)

	body := CreateOrderReq{
		IdempotencyKey: uuid.NewString(),
		Order:          order,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&errEnv).
		Post("/v2/orders")
	if err := c.classify(resp, err, &errEnv); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 内部 ====================

// classify 把响应归一成三态: 成功 / 应用层拒绝(RequestError) / 传输失败
func (c *Client) classify(resp *resty.Response, reqErr error, env *errorEnvelope) error {
	if reqErr != nil {
		return fmt.Errorf("square: 网络请求失败: %w", reqErr)
	}
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == 404 {
		return ErrNotFound
	}
	return &RequestError{
		StatusCode: resp.StatusCode(),
		Errors:     env.Errors,
	}
}
