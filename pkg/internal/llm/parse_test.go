package llm_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/luoxiv/enervision/pkg/internal/llm"
	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// TestParseResponsePlainJSON 测试干净 JSON 回复的解析.
func TestParseResponsePlainJSON(t *testing.T) {
	raw := `{"summary":"风机盘管滴水，吊顶有水渍","severity":"medium","tags":["hvac"]}`

	payload, err := llm.ParseResponse(raw, schema.TypeSceneIssueReport)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	report, ok := payload.(*schema.SceneIssueReportV1)
	if !ok {
		t.Fatalf("expected *SceneIssueReportV1, got %T", payload)
	}

	if report.Severity != "medium" {
		t.Errorf("severity = %q, want medium", report.Severity)
	}
}

// TestParseResponseFencedJSON 测试带 markdown 围栏的回复经修复后可解析.
func TestParseResponseFencedJSON(t *testing.T) {
	raw := "```json\n{\"reading\":\"003456.7\",\"unit\":\"kWh\",\"summary\":\"读数清晰\"}\n```"

	payload, err := llm.ParseResponse(raw, schema.TypeMeterReading)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	reading, ok := payload.(*schema.MeterReadingV1)
	if !ok {
		t.Fatalf("expected *MeterReadingV1, got %T", payload)
	}

	if reading.Reading != "003456.7" {
		t.Errorf("reading = %q, want 003456.7", reading.Reading)
	}
}

// TestParseResponseProseAroundJSON 测试 JSON 对象前后有解释文字的回复.
func TestParseResponseProseAroundJSON(t *testing.T) {
	raw := `根据图片内容，结构化结果如下：{"summary":"配电柜指示灯异常"} 希望对你有帮助。`

	payload, err := llm.ParseResponse(raw, schema.TypeSceneIssueReport)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	report := payload.(*schema.SceneIssueReportV1)
	if report.Summary != "配电柜指示灯异常" {
		t.Errorf("summary = %q", report.Summary)
	}
}

// TestParseResponseGarbage 测试完全无法解析的回复返回错误.
func TestParseResponseGarbage(t *testing.T) {
	if _, err := llm.ParseResponse("抱歉，我无法识别这张图片。", schema.TypeSceneIssueReport); err == nil {
		t.Error("expected error for non-JSON response, got nil")
	}
}

// TestParseResponseSchemaViolation 测试 JSON 合法但违反模式约束的回复.
func TestParseResponseSchemaViolation(t *testing.T) {
	// summary 缺失
	if _, err := llm.ParseResponse(`{"severity":"low"}`, schema.TypeSceneIssueReport); err == nil {
		t.Error("expected error for missing summary, got nil")
	}

	// severity 非法
	if _, err := llm.ParseResponse(`{"summary":"ok","severity":"urgent"}`, schema.TypeSceneIssueReport); err == nil {
		t.Error("expected error for invalid severity, got nil")
	}
}

// TestParseResponseUnknownSchema 测试未知目标模式返回错误.
func TestParseResponseUnknownSchema(t *testing.T) {
	if _, err := llm.ParseResponse(`{}`, "bogus_schema"); err == nil {
		t.Error("expected error for unknown schema, got nil")
	}
}

// TestTransient 测试调用错误的瞬态分类.
func TestTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"breaker open", fmt.Errorf("wrapped: %w", llm.ErrUnavailable), true},
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"auth error", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"network error", errors.New("dial tcp: connection refused"), true},
		{"bad request", errors.New("invalid request body"), false},
	}

	for _, c := range cases {
		if got := llm.Transient(c.err); got != c.want {
			t.Errorf("%s: Transient() = %v, want %v", c.name, got, c.want)
		}
	}
}
