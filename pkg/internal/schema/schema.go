// Package schema 定义资产结构化负载的线级模式（持久化位精确）.
//
// 已注册模式:
//   - image_annotation        OCR 阶段产出
//   - image_route_decision_v1 路由决策与诊断记录
//   - scene_issue_report_v1   场景问题报告（LLM）
//   - meter_reading_v1        仪表读数（LLM）
//   - nameplate_table_v1      铭牌表格（LLM）
package schema

import (
	"fmt"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"

	"github.com/luoxiv/enervision/pkg/rule"
)

// 模式标识.
const (
	TypeImageAnnotation    string = "image_annotation"
	TypeImageRouteDecision string = "image_route_decision_v1"
	TypeSceneIssueReport   string = "scene_issue_report_v1"
	TypeMeterReading       string = "meter_reading_v1"
	TypeNameplateTable     string = "nameplate_table_v1"
)

var registered = map[string]struct{}{
	TypeImageAnnotation:    {},
	TypeImageRouteDecision: {},
	TypeSceneIssueReport:   {},
	TypeMeterReading:       {},
	TypeNameplateTable:     {},
}

// Registered 判断模式标识是否已注册.
func Registered(schemaType string) bool {
	_, ok := registered[schemaType]
	return ok
}

// RegisteredTypes 返回全部已注册模式标识.
func RegisteredTypes() []string {
	types := make([]string, 0, len(registered))
	for t := range registered {
		types = append(types, t)
	}

	return types
}

// Marshal 将负载结构体序列化为 JSON 列值.
func Marshal(v any) (datatypes.JSON, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return datatypes.JSON(data), nil
}

// Unmarshal 从 JSON 列值反序列化负载结构体.
func Unmarshal(data datatypes.JSON, v any) error {
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	return nil
}

// ImageAnnotation OCR 阶段的产出.
type ImageAnnotation struct {
	ImageMeta   ImageMeta   `json:"image_meta"`
	Annotations Annotations `json:"annotations"`
	// DerivedText 全部 OCR 行按序拼接的文本，供 LLM 提示词复用
	DerivedText string          `json:"derived_text"`
	Stats       AnnotationStats `json:"stats"`
}

// ImageMeta 图片元信息.
type ImageMeta struct {
	Path string `json:"path"`
}

// Annotations OCR 标注集合.
type Annotations struct {
	OCRLines   []OCRLine `json:"ocr_lines"`
	Objects    []any     `json:"objects"`
	GlobalTags []string  `json:"global_tags"`
}

// OCRLine 单行识别结果.
type OCRLine struct {
	Text string `json:"text"`
	// BBox 四点框 [[x,y],...]
	BBox       [][]float64 `json:"bbox"`
	Confidence float64     `json:"confidence"`
}

// AnnotationStats OCR 统计信息.
type AnnotationStats struct {
	AvgConfidence float64 `json:"avg_confidence"`
	Engine        string  `json:"engine"`
}

// ImageRouteDecisionV1 路由决策记录，也用于记录 LLM 不可解析等诊断事件.
type ImageRouteDecisionV1 struct {
	Route  string `json:"route"`
	Reason string `json:"reason"`
	// ContentRole 路由时的内容角色，未声明时为 null
	ContentRole *string `json:"content_role"`
}

// 路由值.
const (
	RouteOCRThenLLM      string = "ocr_then_scene_llm"
	RouteOCROnly         string = "ocr_only"
	RouteSceneLLM        string = "scene_llm_pipeline"
	ReasonLLMUnparseable string = "llm_unparseable"
)

// SceneIssueReportV1 场景问题报告.
type SceneIssueReportV1 struct {
	Title              string   `json:"title,omitempty"          rule:"omitempty,max=512"`
	IssueCategory      string   `json:"issue_category,omitempty"`
	Severity           string   `json:"severity,omitempty"       rule:"omitempty,oneof=low medium high"`
	Summary            string   `json:"summary"                  rule:"required"`
	SuspectedCauses    []string `json:"suspected_causes"`
	RecommendedActions []string `json:"recommended_actions"`
	Confidence         *float64 `json:"confidence,omitempty"     rule:"omitempty,min=0,max=1"`
	Tags               []string `json:"tags"`
}

// Validate 校验必填字段与取值范围.
func (r *SceneIssueReportV1) Validate() error {
	return rule.ValidateStruct(r)
}

// MeterReadingV1 仪表读数. 读数保留字符串原文，不做数值归一化.
type MeterReadingV1 struct {
	PreReading string   `json:"pre_reading,omitempty"`
	Reading    string   `json:"reading,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Status     string   `json:"status,omitempty"`
	Summary    string   `json:"summary"              rule:"required"`
	Confidence *float64 `json:"confidence,omitempty" rule:"omitempty,min=0,max=1"`
	Tags       []string `json:"tags"`
}

// Validate 校验必填字段与取值范围.
func (r *MeterReadingV1) Validate() error {
	return rule.ValidateStruct(r)
}

// NameplateTableV1 铭牌表格.
type NameplateTableV1 struct {
	EquipmentType string           `json:"equipment_type,omitempty"`
	Fields        []NameplateField `json:"fields"`
}

// NameplateField 铭牌单字段.
type NameplateField struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Value      string   `json:"value,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" rule:"omitempty,min=0,max=1"`
}

// Validate 校验字段取值范围.
func (r *NameplateTableV1) Validate() error {
	return rule.ValidateStruct(r)
}

// TargetSchemaForRole 返回角色在场景 LLM 流水线中的目标模式.
// 铭牌正常走 OCR 不进 worker，这里仍给出目标模式作为兜底.
func TargetSchemaForRole(contentRole string) string {
	switch contentRole {
	case "meter":
		return TypeMeterReading
	case "nameplate":
		return TypeNameplateTable
	default:
		return TypeSceneIssueReport
	}
}
