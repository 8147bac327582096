package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/internal/model"
)

// 项目面只提供资产流水线依赖的最小 CRUD；完整工程树管理由外部系统负责.

// CreateProjectParams 创建项目参数.
type CreateProjectParams struct {
	Name        string `json:"name"        rule:"required,max=255"`
	Address     string `json:"address"     rule:"omitempty,max=512"`
	Description string `json:"description"`
}

// CreateProject 创建项目.
func (s *AssetService) CreateProject(ctx context.Context, params CreateProjectParams) (*model.Project, error) {
	project := &model.Project{
		ID:          uuid.NewString(),
		Name:        params.Name,
		Address:     params.Address,
		Description: params.Description,
	}

	if err := s.dbClient.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return project, nil
}

// GetProject 返回项目. 软删除的项目视为不存在.
func (s *AssetService) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project

	err := s.dbClient.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	return &project, nil
}

// ListProjects 列出全部未删除项目.
func (s *AssetService) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := s.dbClient.WithContext(ctx).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

// DeleteProject 软删除项目. 项目下的资产与文件保留（核心不做级联清理）.
func (s *AssetService) DeleteProject(ctx context.Context, projectID string) error {
	result := s.dbClient.WithContext(ctx).Delete(&model.Project{}, "id = ?", projectID)
	if result.Error != nil {
		return fmt.Errorf("delete project: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}

	// 清掉存在性缓存，后续上传立刻看到删除
	_ = s.kvClient.Delete(ctx, "project_exists:"+projectID)

	return nil
}
