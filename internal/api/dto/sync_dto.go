package dto

// ==================== 同步相关 DTO ====================

// SyncSummaryData 一轮同步的汇总
type SyncSummaryData struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// DupeScanItem 重复 SKU 巡检条目
type DupeScanItem struct {
	ProductID  int64  `json:"product_id"`
	SKU        string `json:"sku"`
	Duplicates int    `json:"duplicates"`
}

// TaskStatusData 任务挂载状态
type TaskStatusData struct {
	Catalog bool `json:"catalog"`
	Order   bool `json:"order"`
}
