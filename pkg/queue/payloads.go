package queue

import "time"

// AssetRef 事件中引用资产的最小字段集.
type AssetRef struct {
	AssetID     string `json:"asset_id"`
	ProjectID   string `json:"project_id"`
	ContentRole string `json:"content_role"`
}

// AssetStoredPayload 资产入库事件负载.
type AssetStoredPayload struct {
	AssetRef

	BlobID      string    `json:"blob_id"`
	ContentHash string    `json:"content_hash,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CaptureTime time.Time `json:"capture_time"`
}

// AssetRoutedPayload 路由决策事件负载.
type AssetRoutedPayload struct {
	AssetRef

	RunOCR     bool   `json:"run_ocr"`
	EnqueueLLM bool   `json:"enqueue_llm"`
	Status     string `json:"status"`
}

// AssetParsedPayload 结构化负载解析完成事件.
type AssetParsedPayload struct {
	AssetRef

	SchemaType string `json:"schema_type"`
	Version    int    `json:"version"`
	CreatedBy  string `json:"created_by"`
	Status     string `json:"status"`
}

// AssetParseFailedPayload 解析失败事件.
type AssetParseFailedPayload struct {
	AssetRef

	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts,omitempty"`
}
