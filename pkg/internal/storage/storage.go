// Package storage 聚合数据库、文件对象存储、KV 缓存与消息队列等存储资源.
//
// Example:
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // 处理错误
//	}
//
//	dbClient := mgr.GetDBClient()
//	blobStore := mgr.GetBlobStore()
package storage

import (
	"context"
	"sync"

	"github.com/luoxiv/enervision/pkg/configs"
	blobc "github.com/luoxiv/enervision/pkg/internal/storage/blob"
	dbc "github.com/luoxiv/enervision/pkg/internal/storage/db"
	kvc "github.com/luoxiv/enervision/pkg/internal/storage/kv"
	mqc "github.com/luoxiv/enervision/pkg/internal/storage/mq"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// Manager 聚合所有存储资源. MQ 可能为 nil（未启用时）.
type Manager struct {
	DB   *dbc.Client
	Blob blobc.Store
	KV   *kvc.Client
	MQ   *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置. 重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		dbi, e := dbc.New(ctx, &cfg.DB)
		if e != nil {
			err = e
			return
		}

		if e := dbi.Migrate(); e != nil {
			err = e
			return
		}

		m.DB = dbi

		// Blob
		store, e := blobc.New(ctx, &cfg.Storage)
		if e != nil {
			err = e
			return
		}

		m.Blob = store

		// KV
		kvi, e := kvc.New(ctx, &cfg.KV)
		if e != nil {
			err = e
			return
		}

		m.KV = kvi

		// MQ 可选
		if cfg.MQ.Enabled {
			mqi, e := mqc.New(ctx, &cfg.MQ)
			if e != nil {
				err = e
				return
			}

			m.MQ = mqi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// NewManager 按给定配置构建 Manager，不走全局单例. 供测试与一次性工具使用.
func NewManager(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	dbi, err := dbc.New(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}

	if err := dbi.Migrate(); err != nil {
		return nil, err
	}

	store, err := blobc.New(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}

	kvi, err := kvc.New(ctx, &cfg.KV)
	if err != nil {
		return nil, err
	}

	m := &Manager{DB: dbi, Blob: store, KV: kvi}

	if cfg.MQ.Enabled {
		mqi, err := mqc.New(ctx, &cfg.MQ)
		if err != nil {
			return nil, err
		}

		m.MQ = mqi
	}

	return m, nil
}

// Close 释放全部存储资源.
func (m *Manager) Close() error {
	var err error

	if m.Blob != nil {
		if e := m.Blob.Close(); e != nil {
			err = e
		}
	}

	if m.KV != nil {
		if e := m.KV.Close(); e != nil {
			err = e
		}
	}

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	if m.DB != nil {
		if sqlDB, e := m.DB.DB.DB(); e == nil {
			if e := sqlDB.Close(); e != nil {
				err = e
			}
		}
	}

	return err
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetBlobStore 获取文件对象存储.
func (m *Manager) GetBlobStore() blobc.Store {
	return m.Blob
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端. 未启用时返回 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}
