// Package model 定义数据库模型.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// 资产模态.
const (
	ModalityImage    string = "image"
	ModalityTable    string = "table"
	ModalityText     string = "text"
	ModalityDocument string = "document"
	ModalityAudio    string = "audio"
)

// 资产内容角色. 路由器只区分 meter / nameplate，其余非空角色统一走场景 LLM 流水线.
const (
	ContentRoleMeter        string = "meter"
	ContentRoleNameplate    string = "nameplate"
	ContentRoleSceneIssue   string = "scene_issue"
	ContentRoleRuntimeTable string = "runtime_table"
	ContentRoleEnergyTable  string = "energy_table"
)

// 资产解析状态机. 空字符串表示尚未路由.
const (
	StatusParsedOCROK      string = "parsed_ocr_ok"
	StatusParsedOCRLowConf string = "parsed_ocr_low_conf"
	StatusPendingSceneLLM  string = "pending_scene_llm"
	StatusParsedSceneLLM   string = "parsed_scene_llm"
	StatusParsedMeterLLM   string = "parsed_meter_llm"
	StatusParsedNameplate  string = "parsed_nameplate_llm"
)

// TerminalStatuses 全部终态状态值.
func TerminalStatuses() []string {
	return []string{
		StatusParsedOCROK,
		StatusParsedOCRLowConf,
		StatusParsedSceneLLM,
		StatusParsedMeterLLM,
		StatusParsedNameplate,
	}
}

// ValidModality 判断模态是否合法.
func ValidModality(m string) bool {
	switch m {
	case ModalityImage, ModalityTable, ModalityText, ModalityDocument, ModalityAudio:
		return true
	}

	return false
}

// Asset 巡检资产. 每条上传记录一行，状态字段驱动解析流水线.
type Asset struct {
	ID        string `gorm:"primaryKey;size:36"     json:"id"`
	ProjectID string `gorm:"size:36;index;not null" json:"project_id"`

	Modality string `gorm:"size:16;index" json:"modality"`
	// Source 上传来源标签，如 mobile_app / desktop_import
	Source string `gorm:"size:64" json:"source"`
	// ContentRole 上传者声明的内容角色，决定路由行为. 可为空
	ContentRole string `gorm:"size:32;index" json:"content_role"`
	Title       string `gorm:"size:512"      json:"title"`
	// Description 上传者随图片提交的现场备注，原文进入 LLM 提示词
	Description string `gorm:"type:text" json:"description"`
	// Status 解析状态，空串表示尚未路由，序列化时省略
	Status string `gorm:"size:32;index" json:"status,omitempty"`
	// CaptureTime 拍摄/上传时间，worker 按其升序挑选积压资产
	CaptureTime time.Time `gorm:"index" json:"capture_time"`

	// 挂接的工程树节点，均可为空；非空时必须与 project_id 同项目
	BuildingID string `gorm:"size:36;index" json:"building_id,omitempty"`
	ZoneID     string `gorm:"size:36;index" json:"zone_id,omitempty"`
	SystemID   string `gorm:"size:36;index" json:"system_id,omitempty"`
	DeviceID   string `gorm:"size:36;index" json:"device_id,omitempty"`

	FileID string `gorm:"size:32;index" json:"file_id"`

	Tags         datatypes.JSON `gorm:"type:json" json:"tags,omitempty"`
	QualityScore *float64       `json:"quality_score,omitempty"`
	LocationMeta datatypes.JSON `gorm:"type:json" json:"location_meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Blob     *FileBlob                `gorm:"foreignKey:FileID"  json:"blob,omitempty"`
	Payloads []AssetStructuredPayload `gorm:"foreignKey:AssetID" json:"payloads,omitempty"`
}

// FileBlob 不可变的落盘文件元数据. 路径布局 <root>/<project_id>/<blob_id><ext>.
type FileBlob struct {
	ID        string `gorm:"primaryKey;size:32" json:"id"`
	ProjectID string `gorm:"size:36;index"      json:"project_id"`
	// Backend 存储后端类型 fs | s3
	Backend string `gorm:"size:16" json:"backend"`
	Bucket  string `gorm:"size:255" json:"bucket,omitempty"`
	// RelPath 相对存储根的路径，写入后冻结
	RelPath     string `gorm:"size:1024" json:"rel_path"`
	FileName    string `gorm:"size:512"  json:"file_name"`
	ContentType string `gorm:"size:255"  json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	// ContentHash xxhash64 十六进制摘要，用于排查重复上传
	ContentHash string `gorm:"size:16;index" json:"content_hash"`

	CreatedAt time.Time `json:"created_at"`
}

// AssetStructuredPayload 资产的结构化解析负载，追加式版本化存储.
// 同一资产下 version 从 1 起稠密递增（1 + 已有负载数），永不覆盖.
type AssetStructuredPayload struct {
	ID      uint   `gorm:"primaryKey"                              json:"id"`
	AssetID string `gorm:"size:36;index:idx_asset_version,unique"  json:"asset_id"`
	// SchemaType 负载模式标识，如 meter_reading_v1
	SchemaType string `gorm:"size:64;index" json:"schema_type"`
	Version    int    `gorm:"index:idx_asset_version,unique" json:"version"`
	// CreatedBy 产生者: ocr | router | llm | human
	CreatedBy string         `gorm:"size:16;index" json:"created_by"`
	Data      datatypes.JSON `gorm:"type:json"     json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// 负载产生者.
const (
	CreatedByOCR    string = "ocr"
	CreatedByRouter string = "router"
	CreatedByLLM    string = "llm"
	CreatedByHuman  string = "human"
)
