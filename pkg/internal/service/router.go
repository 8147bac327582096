package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/schema"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// RouteImage 按内容角色路由图片资产.
//
// 路由表（role 为小写化的 content_role，可为空）:
//   - meter      先跑 OCR，再记 route 决策并标记等待场景 LLM（读数需要 LLM 消歧）
//   - nameplate  只跑 OCR（铭牌文字密集，OCR 单独可信）
//   - 其余       只记 route 决策，进入场景 LLM 流水线（照片不可 OCR 化）
//
// 对已处于终态的资产重复调用是允许的，负载照常追加，版本单调性不受影响.
func (s *AssetService) RouteImage(ctx context.Context, asset *model.Asset) error {
	if asset.Modality != model.ModalityImage {
		return ErrNotImage
	}

	role := strings.ToLower(asset.ContentRole)

	switch role {
	case model.ContentRoleMeter:
		return s.routeMeter(ctx, asset)
	case model.ContentRoleNameplate:
		// OCR 终态即路由终态
		_, err := s.runOCRStage(ctx, asset)
		if err == nil {
			s.publishRouted(ctx, asset, true, false)
		}

		return err
	default:
		return s.routeScene(ctx, asset, role)
	}
}

// routeMeter 仪表：OCR 数字抽取 + LLM 读数消歧双路.
func (s *AssetService) routeMeter(ctx context.Context, asset *model.Asset) error {
	if _, err := s.runOCRStage(ctx, asset); err != nil {
		return err
	}

	decision := &schema.ImageRouteDecisionV1{
		Route:       schema.RouteOCRThenLLM,
		Reason:      "meter reading needs llm disambiguation over ocr digits",
		ContentRole: roleOrNull(asset.ContentRole),
	}

	var row *model.AssetStructuredPayload

	err := s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		row, err = appendPayloadTx(tx, asset.ID, schema.TypeImageRouteDecision, model.CreatedByRouter, decision)
		if err != nil {
			return err
		}

		asset.Status = model.StatusPendingSceneLLM

		return tx.Model(asset).Update("status", asset.Status).Error
	})
	if err != nil {
		return fmt.Errorf("route meter: %w", err)
	}

	nlog.Logger().Info().
		Str("asset_id", asset.ID).
		Str("route", decision.Route).
		Int("version", row.Version).
		Msg("asset routed")

	s.publishRouted(ctx, asset, true, true)

	return nil
}

// routeScene 场景问题与其余角色：只记决策，交给 worker.
func (s *AssetService) routeScene(ctx context.Context, asset *model.Asset, role string) error {
	decision := &schema.ImageRouteDecisionV1{
		Route:       schema.RouteSceneLLM,
		Reason:      "image not ocr-tractable, needs vision understanding",
		ContentRole: roleOrNull(role),
	}

	err := s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := appendPayloadTx(tx, asset.ID, schema.TypeImageRouteDecision, model.CreatedByRouter, decision); err != nil {
			return err
		}

		asset.Status = model.StatusPendingSceneLLM

		return tx.Model(asset).Update("status", asset.Status).Error
	})
	if err != nil {
		return fmt.Errorf("route scene: %w", err)
	}

	s.publishRouted(ctx, asset, false, true)

	return nil
}

// RouteImageByID 加载资产后路由，返回路由后的完整资产.
func (s *AssetService) RouteImageByID(ctx context.Context, assetID string) (*model.Asset, error) {
	asset, err := s.loadAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if err := s.RouteImage(ctx, asset); err != nil {
		return nil, err
	}

	return s.GetAsset(ctx, assetID)
}

func roleOrNull(role string) *string {
	if role == "" {
		return nil
	}

	return &role
}
