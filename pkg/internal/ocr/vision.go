package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// visionEngine Google Cloud Vision 引擎，段落级行输出.
type visionEngine struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionEngine 创建 GCP Vision 引擎. 未配置凭证文件时走 ADC.
func NewVisionEngine(ctx context.Context, cfg *configs.OCRConfig) (Engine, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}

	return &visionEngine{client: client}, nil
}

func (v *visionEngine) Recognize(ctx context.Context, image []byte) ([]schema.OCRLine, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}

	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	fta := r0.FullTextAnnotation
	if fta == nil {
		return nil, nil
	}

	// 按段落聚合为行
	var lines []schema.OCRLine

	for _, page := range fta.Pages {
		for _, block := range page.GetBlocks() {
			for _, para := range block.GetParagraphs() {
				text := paragraphText(para)
				if strings.TrimSpace(text) == "" {
					continue
				}

				lines = append(lines, schema.OCRLine{
					Text:       text,
					BBox:       bboxFromPoly(para.GetBoundingBox()),
					Confidence: float64(para.GetConfidence()),
				})
			}
		}
	}

	return lines, nil
}

// paragraphText 拼接段落内全部符号.
func paragraphText(para *visionpb.Paragraph) string {
	var sb strings.Builder

	for _, word := range para.GetWords() {
		for _, sym := range word.GetSymbols() {
			sb.WriteString(sym.GetText())

			switch sym.GetProperty().GetDetectedBreak().GetType() {
			case visionpb.TextAnnotation_DetectedBreak_SPACE,
				visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
				sb.WriteString(" ")
			case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
				visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
				// 行尾不附加，段落文本保持单行
			}
		}
	}

	return sb.String()
}

// bboxFromPoly 将多边形顶点转为 [[x,y],...].
func bboxFromPoly(poly *visionpb.BoundingPoly) [][]float64 {
	if poly == nil {
		return nil
	}

	box := make([][]float64, 0, len(poly.GetVertices()))
	for _, v := range poly.GetVertices() {
		box = append(box, []float64{float64(v.GetX()), float64(v.GetY())})
	}

	return box
}

func (v *visionEngine) Name() string { return "gcp_vision" }

func (v *visionEngine) Close() error { return v.client.Close() }

func init() {
	RegisterFactory(configs.OCREngineGCPVision, NewVisionEngine)
}
