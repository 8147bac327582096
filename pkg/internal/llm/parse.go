package llm

import (
	"fmt"
	"strings"

	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// OutcomeKind 单次解析尝试的结果分类.
type OutcomeKind int

const (
	// OutcomeOK 解析成功，Payload 有效.
	OutcomeOK OutcomeKind = iota
	// OutcomeTransient 瞬态失败（超时、限流、5xx），保留候选资格稍后重试.
	OutcomeTransient
	// OutcomeUnparseable 模型回复无法解析为目标模式（修复后仍失败）.
	OutcomeUnparseable
	// OutcomePermanent 永久性调用错误（鉴权、请求格式），需运维修正配置.
	// 错误不可归因到单个资产，资产保持 pending.
	OutcomePermanent
)

// Outcome 一次 LLM 解析尝试的结果.
type Outcome struct {
	Kind OutcomeKind
	// Payload 成功时为目标模式结构体指针.
	Payload any
	// Raw 模型原始回复，失败时用于诊断.
	Raw string
	Err error
}

// Ok 构造成功结果.
func Ok(payload any) Outcome { return Outcome{Kind: OutcomeOK, Payload: payload} }

// TransientFailure 构造瞬态失败结果.
func TransientFailure(err error) Outcome { return Outcome{Kind: OutcomeTransient, Err: err} }

// UnparseableFailure 构造不可解析结果.
func UnparseableFailure(raw string, err error) Outcome {
	return Outcome{Kind: OutcomeUnparseable, Raw: raw, Err: err}
}

// PermanentFailure 构造永久性调用错误结果.
func PermanentFailure(err error) Outcome { return Outcome{Kind: OutcomePermanent, Err: err} }

// ClassifyCallError 按 Transient 将调用错误分为瞬态或永久.
func ClassifyCallError(err error) Outcome {
	if Transient(err) {
		return TransientFailure(err)
	}

	return PermanentFailure(err)
}

// ParseResponse 将模型回复解析为目标模式结构体.
// 首次解析失败后做一次修复（剥离代码块围栏与 JSON 外多余文字）再试.
func ParseResponse(raw, schemaType string) (any, error) {
	payload, err := decodeInto(raw, schemaType)
	if err == nil {
		return payload, nil
	}

	repaired := stripFences(raw)
	if repaired == raw {
		return nil, err
	}

	return decodeInto(repaired, schemaType)
}

func decodeInto(text, schemaType string) (any, error) {
	switch schemaType {
	case schema.TypeSceneIssueReport:
		var report schema.SceneIssueReportV1
		if err := schema.Unmarshal([]byte(text), &report); err != nil {
			return nil, err
		}

		if err := report.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scene_issue_report_v1: %w", err)
		}

		return &report, nil

	case schema.TypeMeterReading:
		var reading schema.MeterReadingV1
		if err := schema.Unmarshal([]byte(text), &reading); err != nil {
			return nil, err
		}

		if err := reading.Validate(); err != nil {
			return nil, fmt.Errorf("invalid meter_reading_v1: %w", err)
		}

		return &reading, nil

	case schema.TypeNameplateTable:
		var table schema.NameplateTableV1
		if err := schema.Unmarshal([]byte(text), &table); err != nil {
			return nil, err
		}

		return &table, nil
	}

	return nil, fmt.Errorf("unknown target schema: %s", schemaType)
}

// stripFences 剥离 markdown 代码块围栏与 JSON 对象外的多余文字.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	// 截取首个 { 到末个 } 之间的内容
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start >= 0 && end > start {
		return text[start : end+1]
	}

	return text
}
