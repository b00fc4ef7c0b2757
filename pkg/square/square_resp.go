package square

import (
	"errors"
	"fmt"
	"strings"
)

// ==========================================
// 响应结构与错误分类
// ==========================================

// ErrNotFound 远端对象不存在 (HTTP 404)
// 调用方据此失效本地缓存映射，不视为致命错误
var ErrNotFound = errors.New("square: object not found")

// APIError Square 返回的结构化错误
type APIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("square: [%s/%s] %s", e.Category, e.Code, e.Detail)
}

// 远端错误码
const (
	ErrCodeInvalidValue = "INVALID_VALUE"
	ErrCodeNotFound     = "NOT_FOUND"
)

// RequestError 应用层拒绝 (非 2xx 且带结构化错误明细)
type RequestError struct {
	StatusCode int
	Errors     []APIError
}

func (e *RequestError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square: HTTP %d", e.StatusCode)
	}
	parts := make([]string, len(e.Errors))
	for i, ae := range e.Errors {
		parts[i] = ae.Error()
	}
	return fmt.Sprintf("square: HTTP %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// IsStaleReference 批次是否因引用了已失效的远端 id 被拒绝
// 远端对这类错误报 INVALID_VALUE，明细形如 "Invalid Object with Id ..."
func (e *RequestError) IsStaleReference() bool {
	for _, ae := range e.Errors {
		if ae.Code == ErrCodeInvalidValue &&
			strings.Contains(strings.ToLower(ae.Detail), "invalid object with id") {
			return true
		}
	}
	return false
}

// IsStaleReferenceError 判断任意错误是否为失效引用拒绝
func IsStaleReferenceError(err error) bool {
	var re *RequestError
	if errors.As(err, &re) {
		return re.IsStaleReference()
	}
	return false
}

// ==================== 响应体 ====================

// errorEnvelope 错误响应包 {"errors":[...]}
type errorEnvelope struct {
	Errors []APIError `json:"errors"`
}

// RetrieveObjectResp 单对象查询响应
type RetrieveObjectResp struct {
	Object         *CatalogObject  `json:"object"`
	RelatedObjects []CatalogObject `json:"related_objects,omitempty"`
}

// SearchCatalogResp 目录搜索响应
type SearchCatalogResp struct {
	Objects []CatalogObject `json:"objects"`
	Cursor  string          `json:"cursor,omitempty"`
}

// ListCatalogResp 目录列表响应 (游标分页，Cursor 为空表示最后一页)
type ListCatalogResp struct {
	Objects []CatalogObject `json:"objects"`
	Cursor  string          `json:"cursor,omitempty"`
}

// IDMapping 占位 id -> 远端真实 id
type IDMapping struct {
	ClientObjectID string `json:"client_object_id"`
	ObjectID       string `json:"object_id"`
}

// BatchUpsertResp 批量 upsert 响应
// 注意: 2xx 时 Errors 仍可能非空 (部分告警)，调用方需要记录
type BatchUpsertResp struct {
	Objects    []CatalogObject `json:"objects"`
	IDMappings []IDMapping     `json:"id_mappings"`
	Errors     []APIError      `json:"errors"`
}

// OrderData 远端订单
type OrderData struct {
	ID          string `json:"id"`
	LocationID  string `json:"location_id"`
	ReferenceID string `json:"reference_id"`
	State       string `json:"state"`
}

// CreateOrderResp 订单创建响应
type CreateOrderResp struct {
	Order *OrderData `json:"order"`
}
