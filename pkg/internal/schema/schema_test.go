package schema_test

import (
	"testing"

	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// TestRegistered 测试模式注册表包含全部五种模式.
func TestRegistered(t *testing.T) {
	for _, schemaType := range []string{
		schema.TypeImageAnnotation,
		schema.TypeImageRouteDecision,
		schema.TypeSceneIssueReport,
		schema.TypeMeterReading,
		schema.TypeNameplateTable,
	} {
		if !schema.Registered(schemaType) {
			t.Errorf("expected %s to be registered", schemaType)
		}
	}

	if schema.Registered("bogus_schema") {
		t.Error("expected bogus_schema to be unregistered")
	}

	if got := len(schema.RegisteredTypes()); got != 5 {
		t.Errorf("expected 5 registered types, got %d", got)
	}
}

// TestTargetSchemaForRole 测试角色到目标模式的映射.
func TestTargetSchemaForRole(t *testing.T) {
	cases := []struct {
		role string
		want string
	}{
		{"meter", schema.TypeMeterReading},
		{"nameplate", schema.TypeNameplateTable},
		{"scene_issue", schema.TypeSceneIssueReport},
		{"runtime_table", schema.TypeSceneIssueReport},
		{"", schema.TypeSceneIssueReport},
	}

	for _, c := range cases {
		if got := schema.TargetSchemaForRole(c.role); got != c.want {
			t.Errorf("TargetSchemaForRole(%q) = %s, want %s", c.role, got, c.want)
		}
	}
}

// TestSceneIssueReportValidate 测试场景问题报告的校验规则.
func TestSceneIssueReportValidate(t *testing.T) {
	conf := 0.8
	valid := schema.SceneIssueReportV1{
		Summary:    "冷却塔填料结垢严重，换热效率下降",
		Severity:   "high",
		Confidence: &conf,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid report, got %v", err)
	}

	missing := schema.SceneIssueReportV1{Severity: "low"}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing summary, got nil")
	}

	badSeverity := schema.SceneIssueReportV1{Summary: "ok", Severity: "critical"}
	if err := badSeverity.Validate(); err == nil {
		t.Error("expected error for invalid severity, got nil")
	}

	badConf := 1.5
	outOfRange := schema.SceneIssueReportV1{Summary: "ok", Confidence: &badConf}

	if err := outOfRange.Validate(); err == nil {
		t.Error("expected error for confidence > 1, got nil")
	}
}

// TestMeterReadingValidate 测试仪表读数的校验规则.
func TestMeterReadingValidate(t *testing.T) {
	valid := schema.MeterReadingV1{
		Reading: "003456.7",
		Unit:    "kWh",
		Summary: "电表读数清晰",
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid reading, got %v", err)
	}

	missing := schema.MeterReadingV1{Reading: "123"}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing summary, got nil")
	}
}

// TestMarshalRoundTrip 测试路由决策负载的序列化往返（含 null content_role）.
func TestMarshalRoundTrip(t *testing.T) {
	decision := schema.ImageRouteDecisionV1{
		Route:  schema.RouteSceneLLM,
		Reason: "image not ocr-tractable, needs vision understanding",
	}

	data, err := schema.Marshal(&decision)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded schema.ImageRouteDecisionV1
	if err := schema.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Route != decision.Route || decoded.Reason != decision.Reason {
		t.Errorf("round trip mismatch: %+v != %+v", decoded, decision)
	}

	if decoded.ContentRole != nil {
		t.Errorf("expected nil content_role, got %v", *decoded.ContentRole)
	}
}
