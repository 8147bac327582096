package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/internal/model"
)

// GetAsset 返回资产及其全部结构化负载（按插入顺序）.
func (s *AssetService) GetAsset(ctx context.Context, assetID string) (*model.Asset, error) {
	var asset model.Asset

	err := s.dbClient.WithContext(ctx).
		Preload("Blob").
		Preload("Payloads", func(db *gorm.DB) *gorm.DB {
			return db.Order("version ASC")
		}).
		First(&asset, "id = ?", assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}

	return &asset, nil
}

// ListAssetsFilter 资产列表过滤条件，零值字段不参与过滤.
type ListAssetsFilter struct {
	ProjectID   string
	Modality    string
	ContentRole string
	Status      string
	Limit       int
	Offset      int
}

const defaultListLimit = 100

// ListAssets 按条件列出资产（不带负载，按 capture_time 降序）.
func (s *AssetService) ListAssets(ctx context.Context, filter ListAssetsFilter) ([]model.Asset, error) {
	query := s.dbClient.WithContext(ctx).Model(&model.Asset{})

	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}

	if filter.Modality != "" {
		query = query.Where("modality = ?", filter.Modality)
	}

	if filter.ContentRole != "" {
		query = query.Where("content_role = ?", filter.ContentRole)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var assets []model.Asset
	if err := query.
		Order("capture_time DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	return assets, nil
}

// CountPendingSceneLLM 统计待场景解析的积压资产数.
func (s *AssetService) CountPendingSceneLLM(ctx context.Context) (int64, error) {
	var count int64
	if err := s.dbClient.WithContext(ctx).
		Model(&model.Asset{}).
		Where("status = ?", model.StatusPendingSceneLLM).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count pending assets: %w", err)
	}

	return count, nil
}
