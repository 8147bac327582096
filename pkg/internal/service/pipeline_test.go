package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/schema"
	"github.com/luoxiv/enervision/pkg/internal/service"
)

var (
	highConfLines = []schema.OCRLine{
		{Text: "003456.7", BBox: [][]float64{{10, 10}, {90, 10}, {90, 30}, {10, 30}}, Confidence: 0.97},
		{Text: "kWh", BBox: [][]float64{{10, 40}, {50, 40}, {50, 60}, {10, 60}}, Confidence: 0.95},
	}
	lowConfLines = []schema.OCRLine{
		{Text: "0O345б.7", Confidence: 0.41},
	}
)

// decisionAt 解析指定负载行中的路由决策.
func decisionAt(t *testing.T, row model.AssetStructuredPayload) schema.ImageRouteDecisionV1 {
	t.Helper()

	if row.SchemaType != schema.TypeImageRouteDecision {
		t.Fatalf("schema_type = %s, want %s", row.SchemaType, schema.TypeImageRouteDecision)
	}

	var decision schema.ImageRouteDecisionV1
	if err := schema.Unmarshal(row.Data, &decision); err != nil {
		t.Fatalf("unmarshal decision: %v", err)
	}

	return decision
}

// TestRouteMeter 测试仪表路由：OCR + 路由决策 + pending_scene_llm.
func TestRouteMeter(t *testing.T) {
	fakeOCRLines = highConfLines
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "meter"
	})

	routed, err := testSvc.RouteImageByID(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if routed.Status != model.StatusPendingSceneLLM {
		t.Errorf("status = %q, want pending_scene_llm", routed.Status)
	}

	if len(routed.Payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(routed.Payloads))
	}

	annotation := routed.Payloads[0]
	if annotation.SchemaType != schema.TypeImageAnnotation || annotation.Version != 1 {
		t.Errorf("payload[0] = %s v%d, want image_annotation v1", annotation.SchemaType, annotation.Version)
	}

	if annotation.CreatedBy != model.CreatedByOCR {
		t.Errorf("annotation created_by = %q, want ocr", annotation.CreatedBy)
	}

	decisionRow := routed.Payloads[1]
	if decisionRow.Version != 2 || decisionRow.CreatedBy != model.CreatedByRouter {
		t.Errorf("payload[1] = v%d by %s, want v2 by router", decisionRow.Version, decisionRow.CreatedBy)
	}

	decision := decisionAt(t, decisionRow)
	if decision.Route != schema.RouteOCRThenLLM {
		t.Errorf("route = %q, want ocr_then_scene_llm", decision.Route)
	}

	if decision.ContentRole == nil || *decision.ContentRole != "meter" {
		t.Errorf("content_role = %v, want meter", decision.ContentRole)
	}
}

// TestRouteNameplate 测试铭牌路由：只跑 OCR，OCR 终态即路由终态.
func TestRouteNameplate(t *testing.T) {
	fakeOCRLines = highConfLines
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "nameplate"
	})

	routed, err := testSvc.RouteImageByID(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if routed.Status != model.StatusParsedOCROK {
		t.Errorf("status = %q, want parsed_ocr_ok", routed.Status)
	}

	if len(routed.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(routed.Payloads))
	}

	if routed.Payloads[0].SchemaType != schema.TypeImageAnnotation {
		t.Errorf("schema_type = %s", routed.Payloads[0].SchemaType)
	}
}

// TestRouteNameplateLowConfidence 测试均值置信度低于阈值时进入 parsed_ocr_low_conf.
func TestRouteNameplateLowConfidence(t *testing.T) {
	fakeOCRLines = lowConfLines
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "nameplate"
	})

	routed, err := testSvc.RouteImageByID(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if routed.Status != model.StatusParsedOCRLowConf {
		t.Errorf("status = %q, want parsed_ocr_low_conf", routed.Status)
	}
}

// TestOCRConfidenceBoundary 测试阈值边界：均值恰等于阈值计通过，刚低于则降档.
func TestOCRConfidenceBoundary(t *testing.T) {
	cases := []struct {
		name       string
		confidence float64
		want       string
	}{
		{"at_threshold", 0.800, model.StatusParsedOCROK},
		{"below_threshold", 0.799, model.StatusParsedOCRLowConf},
	}

	project := mustProject(t)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fakeOCRLines = []schema.OCRLine{{Text: "额定功率 5.5kW", Confidence: tc.confidence}}

			asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
				p.ContentRole = "nameplate"
			})

			routed, err := testSvc.RouteImageByID(context.Background(), asset.ID)
			if err != nil {
				t.Fatalf("route: %v", err)
			}

			if routed.Status != tc.want {
				t.Errorf("avg confidence %.3f: status = %q, want %q", tc.confidence, routed.Status, tc.want)
			}
		})
	}
}

// TestRouteDefaultScene 测试未声明角色走场景 LLM 流水线，content_role 为 null.
func TestRouteDefaultScene(t *testing.T) {
	project := mustProject(t)

	asset := uploadImage(t, project.ID, nil) // content_role 为空

	routed, err := testSvc.RouteImageByID(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	if routed.Status != model.StatusPendingSceneLLM {
		t.Errorf("status = %q, want pending_scene_llm", routed.Status)
	}

	if len(routed.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(routed.Payloads))
	}

	decision := decisionAt(t, routed.Payloads[0])
	if decision.Route != schema.RouteSceneLLM {
		t.Errorf("route = %q, want scene_llm_pipeline", decision.Route)
	}

	if decision.ContentRole != nil {
		t.Errorf("content_role = %v, want null", *decision.ContentRole)
	}
}

// TestUploadAutoRoute 测试上传即路由.
func TestUploadAutoRoute(t *testing.T) {
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "scene_issue"
		p.AutoRoute = true
	})

	if asset.Status != model.StatusPendingSceneLLM {
		t.Errorf("status = %q, want pending_scene_llm after auto route", asset.Status)
	}
}

// TestRouteNonImage 测试非图片资产拒绝路由.
func TestRouteNonImage(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)

	doc := &model.Asset{
		ID:        "doc-asset-1",
		ProjectID: project.ID,
		Modality:  model.ModalityDocument,
	}
	if err := testDB.WithContext(ctx).Create(doc).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}

	if _, err := testSvc.RouteImageByID(ctx, doc.ID); !errors.Is(err, service.ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}
}

// TestParseImageVersionsMonotonic 测试重复 OCR 下版本号稠密递增.
func TestParseImageVersionsMonotonic(t *testing.T) {
	fakeOCRLines = highConfLines
	ctx := context.Background()
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "nameplate"
	})

	for i := 0; i < 3; i++ {
		if _, err := testSvc.ParseImage(ctx, asset.ID); err != nil {
			t.Fatalf("parse %d: %v", i, err)
		}
	}

	full, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}

	if len(full.Payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(full.Payloads))
	}

	for i, row := range full.Payloads {
		if row.Version != i+1 {
			t.Errorf("payload[%d].Version = %d, want %d", i, row.Version, i+1)
		}
	}

	// 最新视图只保留每个模式的最大版本
	latest, err := testSvc.LatestPayloads(ctx, asset.ID)
	if err != nil {
		t.Fatalf("latest payloads: %v", err)
	}

	if len(latest) != 1 {
		t.Fatalf("expected 1 latest payload, got %d", len(latest))
	}

	if latest[0].Version != 3 {
		t.Errorf("latest version = %d, want 3", latest[0].Version)
	}
}

// TestAttachSceneIssueReport 测试人工挂接报告.
func TestAttachSceneIssueReport(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "scene_issue"
	})

	report := &schema.SceneIssueReportV1{
		Summary:  "管道保温层破损，存在冷凝水",
		Severity: "medium",
	}

	updated, err := testSvc.AttachSceneIssueReport(ctx, asset.ID, report)
	if err != nil {
		t.Fatalf("attach report: %v", err)
	}

	if updated.Status != model.StatusParsedSceneLLM {
		t.Errorf("status = %q, want parsed_scene_llm", updated.Status)
	}

	full, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}

	if len(full.Payloads) != 1 || full.Payloads[0].CreatedBy != model.CreatedByHuman {
		t.Fatalf("expected one human payload, got %+v", full.Payloads)
	}

	// 校验失败
	if _, err := testSvc.AttachSceneIssueReport(ctx, asset.ID, &schema.SceneIssueReportV1{}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty report, got %v", err)
	}

	// 角色不匹配
	meter := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "meter"
	})

	if _, err := testSvc.AttachSceneIssueReport(ctx, meter.ID, report); !errors.Is(err, service.ErrRoleMismatch) {
		t.Errorf("expected ErrRoleMismatch, got %v", err)
	}
}

// TestNextPendingSceneAsset 测试候选选取：FIFO、排除列表与完成后出队.
func TestNextPendingSceneAsset(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)

	first := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "scene_issue"
		p.AutoRoute = true
	})
	second := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "scene_issue"
		p.AutoRoute = true
	})

	// 其他测试可能残留 pending 资产，限定本项目再比较
	candidate := nextPendingInProject(t, project.ID, nil)
	if candidate == nil || candidate.ID != first.ID {
		t.Fatalf("expected first asset as candidate, got %+v", candidate)
	}

	// 排除第一个后轮到第二个
	candidate = nextPendingInProject(t, project.ID, []string{first.ID})
	if candidate == nil || candidate.ID != second.ID {
		t.Fatalf("expected second asset after exclusion, got %+v", candidate)
	}

	// 完成解析后不再是候选
	loaded, err := testSvc.GetAsset(ctx, first.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}

	if _, err := testSvc.CompleteSceneParse(ctx, loaded, schema.TypeSceneIssueReport, &schema.SceneIssueReportV1{
		Summary: "完成",
	}); err != nil {
		t.Fatalf("complete parse: %v", err)
	}

	reloaded, err := testSvc.GetAsset(ctx, first.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if reloaded.Status != model.StatusParsedSceneLLM {
		t.Errorf("status = %q, want parsed_scene_llm", reloaded.Status)
	}

	candidate = nextPendingInProject(t, project.ID, nil)
	if candidate == nil || candidate.ID != second.ID {
		t.Fatalf("expected second asset after completion, got %+v", candidate)
	}
}

// TestRecordLLMUnparseable 测试不可解析诊断：追加负载但状态保持 pending.
func TestRecordLLMUnparseable(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "scene_issue"
		p.AutoRoute = true
	})

	loaded, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}

	if err := testSvc.RecordLLMUnparseable(ctx, loaded, 3); err != nil {
		t.Fatalf("record unparseable: %v", err)
	}

	full, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if full.Status != model.StatusPendingSceneLLM {
		t.Errorf("status = %q, want pending_scene_llm (diagnostics must not advance state)", full.Status)
	}

	last := full.Payloads[len(full.Payloads)-1]
	if last.CreatedBy != model.CreatedByLLM {
		t.Errorf("created_by = %q, want llm", last.CreatedBy)
	}

	decision := decisionAt(t, last)
	if decision.Reason != schema.ReasonLLMUnparseable {
		t.Errorf("reason = %q, want llm_unparseable", decision.Reason)
	}

	// 仍满足候选条件：防循环依赖 worker 进程内的排除列表
	candidate := nextPendingInProject(t, project.ID, nil)
	if candidate == nil || candidate.ID != asset.ID {
		t.Errorf("expected asset to remain a candidate, got %+v", candidate)
	}

	candidate = nextPendingInProject(t, project.ID, []string{asset.ID})
	if candidate != nil {
		t.Errorf("expected no candidate with exclusion, got %+v", candidate)
	}
}

// nextPendingInProject 反复取候选直到命中指定项目（跳过其他测试的残留）.
func nextPendingInProject(t *testing.T, projectID string, exclude []string) *model.Asset {
	t.Helper()

	ctx := context.Background()
	seen := append([]string{}, exclude...)

	for {
		candidate, err := testSvc.NextPendingSceneAsset(ctx, seen)
		if err != nil {
			t.Fatalf("next pending: %v", err)
		}

		if candidate == nil {
			return nil
		}

		if candidate.ProjectID == projectID {
			return candidate
		}

		seen = append(seen, candidate.ID)
	}
}

// TestCompleteSceneParseMeterStatus 测试仪表资产 LLM 解析后的终态.
func TestCompleteSceneParseMeterStatus(t *testing.T) {
	fakeOCRLines = highConfLines
	ctx := context.Background()
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "meter"
		p.AutoRoute = true
	})

	loaded, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}

	if _, err := testSvc.CompleteSceneParse(ctx, loaded, schema.TypeMeterReading, &schema.MeterReadingV1{
		Reading: "003456.7",
		Unit:    "kWh",
		Summary: "读数清晰",
	}); err != nil {
		t.Fatalf("complete parse: %v", err)
	}

	reloaded, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if reloaded.Status != model.StatusParsedMeterLLM {
		t.Errorf("status = %q, want parsed_meter_llm", reloaded.Status)
	}
}

// TestLatestAnnotationText 测试 OCR 文本提取供提示词复用.
func TestLatestAnnotationText(t *testing.T) {
	fakeOCRLines = highConfLines
	ctx := context.Background()
	project := mustProject(t)

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "meter"
		p.AutoRoute = true
	})

	text, err := testSvc.LatestAnnotationText(ctx, asset.ID)
	if err != nil {
		t.Fatalf("latest annotation text: %v", err)
	}

	if text != "003456.7\nkWh" {
		t.Errorf("derived text = %q", text)
	}

	// 无标注的资产返回空串
	bare := uploadImage(t, project.ID, nil)

	text, err = testSvc.LatestAnnotationText(ctx, bare.ID)
	if err != nil || text != "" {
		t.Errorf("expected empty text, got %q err=%v", text, err)
	}
}
