package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/model"
	"github.com/luoxiv/enervision/pkg/internal/schema"
	"github.com/luoxiv/enervision/pkg/internal/service"
	"github.com/luoxiv/enervision/pkg/internal/storage/blob"
	"github.com/luoxiv/enervision/pkg/internal/storage/db"
	"github.com/luoxiv/enervision/pkg/internal/storage/kv"
)

var (
	testSvc   *service.AssetService
	testDB    *db.Client
	testStore blob.Store
	testKV    *kv.Client

	// fakeOCRLines 当前 fake 引擎返回的识别结果，各测试按需设置.
	fakeOCRLines []schema.OCRLine

	projectSeq atomic.Int64
)

// fakeEngine 返回 fakeOCRLines 的测试引擎.
type fakeEngine struct{}

func (fakeEngine) Recognize(ctx context.Context, image []byte) ([]schema.OCRLine, error) {
	return fakeOCRLines, nil
}

func (fakeEngine) Name() string { return "fake" }

func (fakeEngine) Close() error { return nil }

func TestMain(m *testing.M) {
	if err := configs.InitConfig(""); err != nil {
		panic(err)
	}

	cfg := configs.GetConfig()
	cfg.DB = configs.DBConfig{
		Type:         configs.SQLite,
		Database:     "file::memory:?cache=shared",
		MaxIdleConns: 1,
	}

	root, err := os.MkdirTemp("", "enervision-blobs-*")
	if err != nil {
		panic(err)
	}

	cfg.Storage.Backend = configs.StorageFS
	cfg.Storage.Root = root
	cfg.KV.Type = string(kv.KVTypeMemory)
	cfg.Metrics.Enabled = false
	cfg.Events.Enabled = false

	ctx := context.Background()

	testDB, err = db.New(ctx, &cfg.DB)
	if err != nil {
		panic(err)
	}

	if err := testDB.Migrate(); err != nil {
		panic(err)
	}

	testStore, err = blob.NewFSStore(ctx, &cfg.Storage)
	if err != nil {
		panic(err)
	}

	testKV, err = kv.New(ctx, &cfg.KV)
	if err != nil {
		panic(err)
	}

	testSvc = service.NewAssetServiceWith(testDB, testStore, testKV, nil, fakeEngine{})

	code := m.Run()

	os.RemoveAll(root)
	os.Exit(code)
}

// mustProject 创建一个测试项目.
func mustProject(t *testing.T) *model.Project {
	t.Helper()

	project, err := testSvc.CreateProject(context.Background(), service.CreateProjectParams{
		Name: fmt.Sprintf("测试项目-%d", projectSeq.Add(1)),
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	return project
}

// uploadImage 上传一张测试图片.
func uploadImage(t *testing.T, projectID string, mutate func(*service.UploadImageParams)) *model.Asset {
	t.Helper()

	params := service.UploadImageParams{
		ProjectID:   projectID,
		Source:      "site_capture",
		Note:        "表显示读数 003456.7，单位 kWh",
		FileName:    "IMG_0001.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader([]byte("fake jpeg bytes")),
	}
	if mutate != nil {
		mutate(&params)
	}

	asset, err := testSvc.UploadImageWithNote(context.Background(), params)
	if err != nil {
		t.Fatalf("upload image: %v", err)
	}

	return asset
}

// TestUploadImageWithNote 测试基本上传：建档字段、blob 落盘与摘要.
func TestUploadImageWithNote(t *testing.T) {
	project := mustProject(t)
	ctx := context.Background()

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.ContentRole = "Meter"
		p.Title = "电表照片"
	})

	if asset.Modality != model.ModalityImage {
		t.Errorf("modality = %q, want image", asset.Modality)
	}

	if asset.ContentRole != model.ContentRoleMeter {
		t.Errorf("content_role = %q, want meter (lowercased)", asset.ContentRole)
	}

	if asset.Status != "" {
		t.Errorf("status = %q, want empty before routing", asset.Status)
	}

	if asset.Description != "表显示读数 003456.7，单位 kWh" {
		t.Errorf("note not preserved verbatim: %q", asset.Description)
	}

	full, err := testSvc.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}

	if full.Blob == nil {
		t.Fatal("expected blob metadata to be preloaded")
	}

	if full.Blob.SizeBytes != int64(len("fake jpeg bytes")) {
		t.Errorf("size = %d", full.Blob.SizeBytes)
	}

	if len(full.Blob.ContentHash) != 16 {
		t.Errorf("content hash = %q, want 16 hex chars", full.Blob.ContentHash)
	}

	exists, err := testStore.Exists(ctx, full.Blob.RelPath)
	if err != nil || !exists {
		t.Errorf("expected blob on disk at %s, exists=%v err=%v", full.Blob.RelPath, exists, err)
	}
}

// TestUploadTitleFallback 测试标题缺省时回退为文件名.
func TestUploadTitleFallback(t *testing.T) {
	project := mustProject(t)

	asset := uploadImage(t, project.ID, nil)
	if asset.Title != "IMG_0001.jpg" {
		t.Errorf("title = %q, want file name fallback", asset.Title)
	}
}

// TestUploadUnknownProject 测试项目不存在时拒绝上传.
func TestUploadUnknownProject(t *testing.T) {
	_, err := testSvc.UploadImageWithNote(context.Background(), service.UploadImageParams{
		ProjectID:   "no-such-project",
		FileName:    "a.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader([]byte("x")),
	})
	if !errors.Is(err, service.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

// TestUploadMissingInput 测试缺少必填参数时拒绝上传.
func TestUploadMissingInput(t *testing.T) {
	ctx := context.Background()

	_, err := testSvc.UploadImageWithNote(ctx, service.UploadImageParams{
		FileName: "a.jpg",
		Reader:   bytes.NewReader([]byte("x")),
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing project, got %v", err)
	}

	project := mustProject(t)

	_, err = testSvc.UploadImageWithNote(ctx, service.UploadImageParams{
		ProjectID: project.ID,
		FileName:  "a.jpg",
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing file, got %v", err)
	}
}

// TestUploadBindingChecks 测试工程树挂接必须属于目标项目.
func TestUploadBindingChecks(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)
	other := mustProject(t)

	foreign := &model.Building{ID: "bld-foreign-1", ProjectID: other.ID, Name: "别处的楼"}
	if err := testDB.WithContext(ctx).Create(foreign).Error; err != nil {
		t.Fatalf("create building: %v", err)
	}

	_, err := testSvc.UploadImageWithNote(ctx, service.UploadImageParams{
		ProjectID:   project.ID,
		BuildingID:  foreign.ID,
		FileName:    "a.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader([]byte("x")),
	})
	if !errors.Is(err, service.ErrCrossProjectRef) {
		t.Errorf("expected ErrCrossProjectRef, got %v", err)
	}

	_, err = testSvc.UploadImageWithNote(ctx, service.UploadImageParams{
		ProjectID:   project.ID,
		BuildingID:  "no-such-building",
		FileName:    "a.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader([]byte("x")),
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown building, got %v", err)
	}

	// 合法挂接
	own := &model.Building{ID: "bld-own-1", ProjectID: project.ID, Name: "1号楼"}
	if err := testDB.WithContext(ctx).Create(own).Error; err != nil {
		t.Fatalf("create building: %v", err)
	}

	asset := uploadImage(t, project.ID, func(p *service.UploadImageParams) {
		p.BuildingID = own.ID
	})
	if asset.BuildingID != own.ID {
		t.Errorf("building_id = %q", asset.BuildingID)
	}
}

// TestDeleteProjectInvalidatesCache 测试删除项目后上传立刻被拒绝（缓存失效）.
func TestDeleteProjectInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)

	// 先上传一次，项目存在性进入缓存
	uploadImage(t, project.ID, nil)

	if err := testSvc.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if _, err := testSvc.GetProject(ctx, project.ID); !errors.Is(err, service.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound after delete, got %v", err)
	}

	_, err := testSvc.UploadImageWithNote(ctx, service.UploadImageParams{
		ProjectID:   project.ID,
		FileName:    "b.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader([]byte("x")),
	})
	if !errors.Is(err, service.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound after delete, got %v", err)
	}
}

// TestListAssets 测试条件列表.
func TestListAssets(t *testing.T) {
	ctx := context.Background()
	project := mustProject(t)

	uploadImage(t, project.ID, func(p *service.UploadImageParams) { p.ContentRole = "meter" })
	uploadImage(t, project.ID, func(p *service.UploadImageParams) { p.ContentRole = "scene_issue" })

	assets, err := testSvc.ListAssets(ctx, service.ListAssetsFilter{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}

	if len(assets) != 2 {
		t.Errorf("expected 2 assets, got %d", len(assets))
	}

	meters, err := testSvc.ListAssets(ctx, service.ListAssetsFilter{
		ProjectID:   project.ID,
		ContentRole: "meter",
	})
	if err != nil {
		t.Fatalf("list meters: %v", err)
	}

	if len(meters) != 1 {
		t.Errorf("expected 1 meter asset, got %d", len(meters))
	}
}

// TestGetAssetNotFound 测试资产不存在.
func TestGetAssetNotFound(t *testing.T) {
	if _, err := testSvc.GetAsset(context.Background(), "no-such-asset"); !errors.Is(err, service.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}
