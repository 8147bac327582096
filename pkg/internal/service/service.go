// Package service 实现资产摄取与多模态解析流水线的业务逻辑，不处理 HTTP 细节.
package service

import (
	"context"

	ctxPkg "github.com/luoxiv/enervision/pkg/context"
	"github.com/luoxiv/enervision/pkg/internal/ocr"
	"github.com/luoxiv/enervision/pkg/internal/storage/blob"
	"github.com/luoxiv/enervision/pkg/internal/storage/db"
	"github.com/luoxiv/enervision/pkg/internal/storage/kv"
	"github.com/luoxiv/enervision/pkg/internal/storage/mq"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// AssetService 资产流水线业务逻辑：上传、路由、OCR、负载追加与查询.
type AssetService struct {
	dbClient  *db.Client
	blobStore blob.Store
	kvClient  *kv.Client
	mqClient  *mq.Client // 可能为 nil
	ocrEngine ocr.Engine // 构造时注入，可能为 nil（纯 worker 面不跑 OCR）
}

// NewAssetService 从 context 获取依赖实例，OCR 引擎由工厂按配置构造.
func NewAssetService(c context.Context) *AssetService {
	dbc := ctxPkg.GetDBClient(c)
	store := ctxPkg.GetBlobStore(c)
	kvc := ctxPkg.GetKVClient(c)

	// 依赖缺失说明初始化顺序错误，直接 Fatal 而不是层层判空
	if dbc == nil || dbc.DB == nil || store == nil || kvc == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	engine, err := ocr.Get(c)
	if err != nil {
		nlog.Logger().Fatal().Err(err).Msg("ocr engine init failed")
	}

	return &AssetService{
		dbClient:  dbc,
		blobStore: store,
		kvClient:  kvc,
		mqClient:  ctxPkg.GetMQClient(c),
		ocrEngine: engine,
	}
}

// NewAssetServiceWith 显式注入依赖，供测试使用.
func NewAssetServiceWith(dbc *db.Client, store blob.Store, kvc *kv.Client, mqc *mq.Client, engine ocr.Engine) *AssetService {
	return &AssetService{
		dbClient:  dbc,
		blobStore: store,
		kvClient:  kvc,
		mqClient:  mqc,
		ocrEngine: engine,
	}
}

// BlobStore 返回底层文件存储（worker 读取图片用）.
func (s *AssetService) BlobStore() blob.Store {
	return s.blobStore
}
