package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/ocr"
	"github.com/luoxiv/enervision/pkg/internal/schema"
	"github.com/luoxiv/enervision/pkg/internal/storage/blob"
	"github.com/luoxiv/enervision/pkg/metrics"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// ParseImage 对图片资产执行 OCR 阶段，返回更新后的完整资产.
func (s *AssetService) ParseImage(ctx context.Context, assetID string) (*model.Asset, error) {
	asset, err := s.loadAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.Modality != model.ModalityImage {
		return nil, ErrNotImage
	}

	if _, err := s.runOCRStage(ctx, asset); err != nil {
		return nil, err
	}

	return s.GetAsset(ctx, assetID)
}

// runOCRStage 执行 OCR：识别、构造 image_annotation、按均值置信度推进状态.
// 产出恰好一条新负载行与一次状态更新，两者在同一事务内提交.
func (s *AssetService) runOCRStage(ctx context.Context, asset *model.Asset) (*model.AssetStructuredPayload, error) {
	fileBlob, image, err := s.readBlob(ctx, asset)
	if err != nil {
		return nil, err
	}

	relPath := fileBlob.RelPath

	engine := s.ocrEngine
	if engine == nil {
		return nil, fmt.Errorf("ocr engine not configured")
	}

	lines, err := engine.Recognize(ctx, image)
	if err != nil {
		metrics.OCRRuns.WithLabelValues(engine.Name(), "error").Inc()
		return nil, fmt.Errorf("ocr recognize: %w", err)
	}

	avg := ocr.AvgConfidence(lines)
	annotation := buildAnnotation(relPath, lines, avg, engine.Name())

	threshold := configs.GetConfig().OCR.ConfidenceThreshold

	status := model.StatusParsedOCROK
	if avg < threshold {
		status = model.StatusParsedOCRLowConf
	}

	var row *model.AssetStructuredPayload

	err = s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err = appendPayloadTx(tx, asset.ID, schema.TypeImageAnnotation, model.CreatedByOCR, annotation)
		if err != nil {
			return err
		}

		asset.Status = status

		return tx.Model(asset).Update("status", status).Error
	})
	if err != nil {
		return nil, fmt.Errorf("persist ocr result: %w", err)
	}

	metrics.OCRRuns.WithLabelValues(engine.Name(), statusOutcome(status)).Inc()

	nlog.Logger().Info().
		Str("asset_id", asset.ID).
		Int("lines", len(lines)).
		Float64("avg_confidence", avg).
		Str("status", status).
		Msg("ocr stage completed")

	s.publishParsed(ctx, asset, row)

	return row, nil
}

// readBlob 加载资产引用的文件元数据与图片字节.
func (s *AssetService) readBlob(ctx context.Context, asset *model.Asset) (*model.FileBlob, []byte, error) {
	var fileBlob model.FileBlob

	err := s.dbClient.WithContext(ctx).First(&fileBlob, "id = ?", asset.FileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrBlobNotFound
	}

	if err != nil {
		return nil, nil, fmt.Errorf("load blob meta: %w", err)
	}

	reader, err := s.blobStore.Get(ctx, fileBlob.RelPath)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, ErrBlobNotFound
	}

	if err != nil {
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("read blob: %w", err)
	}

	return &fileBlob, data, nil
}

// buildAnnotation 组装 image_annotation 负载.
func buildAnnotation(path string, lines []schema.OCRLine, avg float64, engineName string) *schema.ImageAnnotation {
	if lines == nil {
		lines = []schema.OCRLine{}
	}

	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		texts = append(texts, line.Text)
	}

	return &schema.ImageAnnotation{
		ImageMeta: schema.ImageMeta{Path: path},
		Annotations: schema.Annotations{
			OCRLines:   lines,
			Objects:    []any{},
			GlobalTags: []string{},
		},
		DerivedText: strings.Join(texts, "\n"),
		Stats: schema.AnnotationStats{
			AvgConfidence: avg,
			Engine:        engineName,
		},
	}
}

func statusOutcome(status string) string {
	if status == model.StatusParsedOCROK {
		return "ok"
	}

	return "low_conf"
}
