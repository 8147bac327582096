package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/storage/blob"
	nlog "github.com/luoxiv/enervision/pkg/log"
	"github.com/luoxiv/enervision/pkg/metrics"
)

// UploadImageParams 图片上传请求参数.
type UploadImageParams struct {
	ProjectID   string
	Source      string
	ContentRole string
	Note        string
	Title       string
	AutoRoute   bool

	// 工程树挂接，均可为空
	BuildingID string
	ZoneID     string
	SystemID   string
	DeviceID   string

	FileName    string
	ContentType string
	Reader      io.Reader
}

// UploadImageWithNote 接收图片与备注，落盘并建档，可选地在同一请求内路由.
//
// 存储失败时不提交任何数据库行；路由失败不回滚上传，返回未路由的资产.
func (s *AssetService) UploadImageWithNote(ctx context.Context, params UploadImageParams) (*model.Asset, error) {
	if params.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}

	if params.Reader == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	exists, err := s.projectExists(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrProjectNotFound
	}

	if err := s.checkBindings(ctx, &params); err != nil {
		return nil, err
	}

	// 流式写入的同时计算大小与摘要
	blobID := newBlobID()
	ext := strings.ToLower(filepath.Ext(params.FileName))
	relPath := blob.RelPath(params.ProjectID, blobID, ext)

	hasher := xxhash.New()
	counter := &countingReader{r: io.TeeReader(params.Reader, hasher)}

	if err := s.blobStore.Put(ctx, relPath, counter, -1, params.ContentType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	title := params.Title
	if title == "" {
		title = params.FileName
	}

	cfg := configs.GetConfig()
	now := time.Now().UTC()

	fileBlob := &model.FileBlob{
		ID:          blobID,
		ProjectID:   params.ProjectID,
		Backend:     string(cfg.Storage.Backend),
		Bucket:      cfg.Storage.Bucket,
		RelPath:     relPath,
		FileName:    params.FileName,
		ContentType: params.ContentType,
		SizeBytes:   counter.n,
		ContentHash: fmt.Sprintf("%016x", hasher.Sum64()),
	}

	asset := &model.Asset{
		ID:          uuid.NewString(),
		ProjectID:   params.ProjectID,
		Modality:    model.ModalityImage,
		Source:      params.Source,
		ContentRole: strings.ToLower(params.ContentRole),
		Title:       title,
		Description: params.Note,
		CaptureTime: now,
		BuildingID:  params.BuildingID,
		ZoneID:      params.ZoneID,
		SystemID:    params.SystemID,
		DeviceID:    params.DeviceID,
		FileID:      blobID,
	}

	err = s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fileBlob).Error; err != nil {
			return fmt.Errorf("insert blob: %w", err)
		}

		if err := tx.Create(asset).Error; err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}

		return nil
	})
	if err != nil {
		// 元数据入库失败时清理已写入的文件
		if cleanErr := s.blobStore.Delete(ctx, relPath); cleanErr != nil {
			nlog.Logger().Warn().Err(cleanErr).Str("path", relPath).Msg("orphan blob cleanup failed")
		}

		return nil, err
	}

	metrics.AssetUploads.WithLabelValues(asset.ContentRole).Inc()
	s.publishStored(ctx, asset, fileBlob)

	if params.AutoRoute {
		if routeErr := s.RouteImage(ctx, asset); routeErr != nil {
			// 路由失败不能丢上传，返回未路由的资产
			nlog.Logger().Warn().Err(routeErr).Str("asset_id", asset.ID).Msg("auto route failed")
		}
	}

	return s.loadAsset(ctx, asset.ID)
}

// projectExists 检查项目存在性，结果在 KV 中缓存短 TTL.
func (s *AssetService) projectExists(ctx context.Context, projectID string) (bool, error) {
	const cacheTTL = time.Minute

	cacheKey := "project_exists:" + projectID
	if data, err := s.kvClient.Get(ctx, cacheKey); err == nil && string(data) == "1" {
		return true, nil
	}

	var count int64
	if err := s.dbClient.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", projectID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}

	if count == 0 {
		return false, nil
	}

	// 只缓存命中，避免新建项目被负缓存挡住
	if err := s.kvClient.Set(ctx, cacheKey, []byte("1"), cacheTTL); err != nil {
		nlog.Logger().Debug().Err(err).Msg("cache project existence failed")
	}

	return true, nil
}

// checkBindings 校验工程树挂接全部属于目标项目.
func (s *AssetService) checkBindings(ctx context.Context, params *UploadImageParams) error {
	db := s.dbClient.WithContext(ctx)

	if params.BuildingID != "" {
		var building model.Building
		if err := db.First(&building, "id = ?", params.BuildingID).Error; err != nil {
			return bindingErr("building", params.BuildingID, err)
		}

		if building.ProjectID != params.ProjectID {
			return fmt.Errorf("%w: building %s", ErrCrossProjectRef, params.BuildingID)
		}
	}

	if params.ZoneID != "" {
		var zone model.Zone
		if err := db.First(&zone, "id = ?", params.ZoneID).Error; err != nil {
			return bindingErr("zone", params.ZoneID, err)
		}

		var building model.Building
		if err := db.First(&building, "id = ?", zone.BuildingID).Error; err != nil {
			return bindingErr("building", zone.BuildingID, err)
		}

		if building.ProjectID != params.ProjectID {
			return fmt.Errorf("%w: zone %s", ErrCrossProjectRef, params.ZoneID)
		}
	}

	if params.SystemID != "" {
		var system model.System
		if err := db.First(&system, "id = ?", params.SystemID).Error; err != nil {
			return bindingErr("system", params.SystemID, err)
		}

		if system.ProjectID != params.ProjectID {
			return fmt.Errorf("%w: system %s", ErrCrossProjectRef, params.SystemID)
		}
	}

	if params.DeviceID != "" {
		var device model.Device
		if err := db.First(&device, "id = ?", params.DeviceID).Error; err != nil {
			return bindingErr("device", params.DeviceID, err)
		}

		var system model.System
		if err := db.First(&system, "id = ?", device.SystemID).Error; err != nil {
			return bindingErr("system", device.SystemID, err)
		}

		if system.ProjectID != params.ProjectID {
			return fmt.Errorf("%w: device %s", ErrCrossProjectRef, params.DeviceID)
		}
	}

	return nil
}

func bindingErr(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s not found", ErrInvalidInput, kind, id)
	}

	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

// countingReader 统计经过的字节数.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}

// newBlobID 生成按时间有序的 blob ID（小写 ULID）.
func newBlobID() string {
	return strings.ToLower(ulid.Make().String())
}
