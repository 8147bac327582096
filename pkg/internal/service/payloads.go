package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/schema"
	"github.com/luoxiv/enervision/pkg/queue"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// appendPayloadTx 在事务内追加负载行. 版本号 = 1 + 该资产已有负载数，
// 与计数在同一事务内完成，保证每个资产的版本稠密且全序.
func appendPayloadTx(tx *gorm.DB, assetID, schemaType, createdBy string, payload any) (*model.AssetStructuredPayload, error) {
	if !schema.Registered(schemaType) {
		return nil, fmt.Errorf("%w: unregistered schema %s", ErrInvalidInput, schemaType)
	}

	data, err := schema.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := tx.Model(&model.AssetStructuredPayload{}).
		Where("asset_id = ?", assetID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count payloads: %w", err)
	}

	row := &model.AssetStructuredPayload{
		AssetID:    assetID,
		SchemaType: schemaType,
		Version:    int(count) + 1,
		CreatedBy:  createdBy,
		Data:       data,
	}

	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("insert payload: %w", err)
	}

	return row, nil
}

// AttachSceneIssueReport 人工挂接场景问题报告（绕过 worker 的修正通道）.
// 仅允许 image + scene_issue 资产，成功后状态置为 parsed_scene_llm.
func (s *AssetService) AttachSceneIssueReport(ctx context.Context, assetID string, report *schema.SceneIssueReportV1) (*model.Asset, error) {
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	asset, err := s.loadAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.Modality != model.ModalityImage {
		return nil, ErrNotImage
	}

	if asset.ContentRole != model.ContentRoleSceneIssue {
		return nil, fmt.Errorf("%w: expected scene_issue, got %q", ErrRoleMismatch, asset.ContentRole)
	}

	var row *model.AssetStructuredPayload

	err = s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err = appendPayloadTx(tx, asset.ID, schema.TypeSceneIssueReport, model.CreatedByHuman, report)
		if err != nil {
			return err
		}

		asset.Status = model.StatusParsedSceneLLM

		return tx.Model(asset).Update("status", asset.Status).Error
	})
	if err != nil {
		return nil, err
	}

	s.publishParsed(ctx, asset, row)

	return s.loadAsset(ctx, assetID)
}

// LatestPayloads 按 schema_type 取最大版本的"最新视图".
func (s *AssetService) LatestPayloads(ctx context.Context, assetID string) ([]model.AssetStructuredPayload, error) {
	if _, err := s.loadAsset(ctx, assetID); err != nil {
		return nil, err
	}

	var rows []model.AssetStructuredPayload
	if err := s.dbClient.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("version ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list payloads: %w", err)
	}

	latest := make(map[string]model.AssetStructuredPayload, len(rows))
	order := make([]string, 0, len(rows))

	for _, row := range rows {
		if _, seen := latest[row.SchemaType]; !seen {
			order = append(order, row.SchemaType)
		}

		latest[row.SchemaType] = row
	}

	result := make([]model.AssetStructuredPayload, 0, len(order))
	for _, schemaType := range order {
		result = append(result, latest[schemaType])
	}

	return result, nil
}

// loadAsset 按 ID 加载资产（不带关联）.
func (s *AssetService) loadAsset(ctx context.Context, assetID string) (*model.Asset, error) {
	var asset model.Asset

	err := s.dbClient.WithContext(ctx).First(&asset, "id = ?", assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}

	return &asset, nil
}

// 事件发布. MQ 未启用或开关关闭时为空操作；发布失败只记日志，不影响主流程.

func (s *AssetService) eventsEnabled() bool {
	return s.mqClient != nil && configs.GetConfig().Events.Enabled
}

func assetRef(asset *model.Asset) queue.AssetRef {
	return queue.AssetRef{
		AssetID:     asset.ID,
		ProjectID:   asset.ProjectID,
		ContentRole: asset.ContentRole,
	}
}

func (s *AssetService) publish(ctx context.Context, topic string, msgBuilder func() (payload any)) {
	payload := msgBuilder()

	msg, err := queue.NewWatermillMessage(topic, payload, queue.WithProducer("enervision"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("encode event failed")
		return
	}

	if err := s.mqClient.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

func (s *AssetService) publishStored(ctx context.Context, asset *model.Asset, fileBlob *model.FileBlob) {
	if !s.eventsEnabled() || !configs.GetConfig().Events.Asset.Stored {
		return
	}

	s.publish(ctx, queue.TopicAssetStored, func() any {
		return queue.AssetStoredPayload{
			AssetRef:    assetRef(asset),
			BlobID:      fileBlob.ID,
			ContentHash: fileBlob.ContentHash,
			SizeBytes:   fileBlob.SizeBytes,
			CaptureTime: asset.CaptureTime,
		}
	})
}

func (s *AssetService) publishRouted(ctx context.Context, asset *model.Asset, runOCR, enqueueLLM bool) {
	if !s.eventsEnabled() || !configs.GetConfig().Events.Asset.Routed {
		return
	}

	s.publish(ctx, queue.TopicAssetRouted, func() any {
		return queue.AssetRoutedPayload{
			AssetRef:   assetRef(asset),
			RunOCR:     runOCR,
			EnqueueLLM: enqueueLLM,
			Status:     asset.Status,
		}
	})
}

func (s *AssetService) publishParsed(ctx context.Context, asset *model.Asset, row *model.AssetStructuredPayload) {
	if !s.eventsEnabled() || !configs.GetConfig().Events.Asset.Parsed {
		return
	}

	s.publish(ctx, queue.TopicAssetParsed, func() any {
		return queue.AssetParsedPayload{
			AssetRef:   assetRef(asset),
			SchemaType: row.SchemaType,
			Version:    row.Version,
			CreatedBy:  row.CreatedBy,
			Status:     asset.Status,
		}
	})
}

func (s *AssetService) publishParseFailed(ctx context.Context, asset *model.Asset, stage, reason string, attempts int) {
	if !s.eventsEnabled() || !configs.GetConfig().Events.Asset.ParseFailed {
		return
	}

	s.publish(ctx, queue.TopicAssetParseFailed, func() any {
		return queue.AssetParseFailedPayload{
			AssetRef: assetRef(asset),
			Stage:    stage,
			Reason:   reason,
			Attempts: attempts,
		}
	})
}
