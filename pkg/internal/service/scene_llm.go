package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// worker 面的支撑方法. 两个执行面只通过 asset.status 协调.

// NextPendingSceneAsset 取下一个待场景解析的候选：状态为 pending_scene_llm、
// 尚无角色对应目标模式负载的资产，按 capture_time 升序（FIFO 公平）.
// excludeIDs 用于跳过本进程内已放弃的资产. 无候选时返回 (nil, nil).
func (s *AssetService) NextPendingSceneAsset(ctx context.Context, excludeIDs []string) (*model.Asset, error) {
	var asset model.Asset

	query := s.dbClient.WithContext(ctx).
		Where("status = ?", model.StatusPendingSceneLLM).
		Where(`NOT EXISTS (
			SELECT 1 FROM asset_structured_payloads p
			WHERE p.asset_id = assets.id
			  AND p.schema_type = CASE
			        WHEN assets.content_role = ? THEN ?
			        WHEN assets.content_role = ? THEN ?
			        ELSE ? END
		)`, model.ContentRoleMeter, schema.TypeMeterReading,
			model.ContentRoleNameplate, schema.TypeNameplateTable,
			schema.TypeSceneIssueReport)

	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	err := query.
		Order("capture_time ASC").
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("select candidate: %w", err)
	}

	return &asset, nil
}

// LatestAnnotationText 取资产最新 image_annotation 的 derived_text，无则返回空串.
func (s *AssetService) LatestAnnotationText(ctx context.Context, assetID string) (string, error) {
	var row model.AssetStructuredPayload

	err := s.dbClient.WithContext(ctx).
		Where("asset_id = ? AND schema_type = ?", assetID, schema.TypeImageAnnotation).
		Order("version DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("load annotation: %w", err)
	}

	var annotation schema.ImageAnnotation
	if err := schema.Unmarshal(row.Data, &annotation); err != nil {
		return "", err
	}

	return annotation.DerivedText, nil
}

// ReadAssetImage 读取资产图片字节与内容类型，供 LLM 调用.
func (s *AssetService) ReadAssetImage(ctx context.Context, asset *model.Asset) ([]byte, string, error) {
	fileBlob, data, err := s.readBlob(ctx, asset)
	if err != nil {
		return nil, "", err
	}

	return data, fileBlob.ContentType, nil
}

// CompleteSceneParse 成功的 LLM 解析：在单事务内追加目标负载并推进到终态.
func (s *AssetService) CompleteSceneParse(ctx context.Context, asset *model.Asset, schemaType string, payload any) (*model.AssetStructuredPayload, error) {
	status := terminalStatusForRole(asset.ContentRole)

	var row *model.AssetStructuredPayload

	err := s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		row, err = appendPayloadTx(tx, asset.ID, schemaType, model.CreatedByLLM, payload)
		if err != nil {
			return err
		}

		asset.Status = status

		return tx.Model(asset).Update("status", status).Error
	})
	if err != nil {
		return nil, fmt.Errorf("complete scene parse: %w", err)
	}

	s.publishParsed(ctx, asset, row)

	return row, nil
}

// RecordLLMUnparseable 不可解析的模型回复：追加诊断负载，资产保持 pending，
// 供运维观察卡住的资产.
func (s *AssetService) RecordLLMUnparseable(ctx context.Context, asset *model.Asset, attempts int) error {
	decision := &schema.ImageRouteDecisionV1{
		Route:       schema.RouteSceneLLM,
		Reason:      schema.ReasonLLMUnparseable,
		ContentRole: roleOrNull(asset.ContentRole),
	}

	err := s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := appendPayloadTx(tx, asset.ID, schema.TypeImageRouteDecision, model.CreatedByLLM, decision)
		return err
	})
	if err != nil {
		return fmt.Errorf("record unparseable: %w", err)
	}

	s.publishParseFailed(ctx, asset, "scene_llm", schema.ReasonLLMUnparseable, attempts)

	return nil
}

// terminalStatusForRole 角色对应的 LLM 解析终态.
func terminalStatusForRole(contentRole string) string {
	switch strings.ToLower(contentRole) {
	case model.ContentRoleMeter:
		return model.StatusParsedMeterLLM
	case model.ContentRoleNameplate:
		return model.StatusParsedNameplate
	default:
		return model.StatusParsedSceneLLM
	}
}
