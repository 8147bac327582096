// Package blob 提供图片文件的对象存储抽象.
//
// 落盘路径布局固定为 <root>/<project_id>/<blob_id><ext>，
// 后端通过工厂模式注册，目前支持本地文件系统（fs）与 S3 兼容存储（s3）.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/luoxiv/enervision/pkg/configs"
)

// ErrNotFound 对象不存在.
var ErrNotFound = errors.New("blob not found")

// Store 定义文件对象存储接口.
type Store interface {
	// Put 写入对象，relPath 为相对存储根的路径.
	Put(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) error
	// Get 读取对象，调用方负责 Close.
	Get(ctx context.Context, relPath string) (io.ReadCloser, error)
	// Exists 检查对象是否存在.
	Exists(ctx context.Context, relPath string) (bool, error)
	// Delete 删除对象.
	Delete(ctx context.Context, relPath string) error
	// Close 释放后端资源.
	Close() error
}

// Factory 定义创建 Store 的工厂函数类型.
type Factory func(ctx context.Context, cfg *configs.StorageConfig) (Store, error)

var factories = map[configs.StorageBackend]Factory{}

// RegisterFactory 注册存储后端工厂函数.
func RegisterFactory(backend configs.StorageBackend, factory Factory) {
	factories[backend] = factory
}

// GetRegisteredBackends 返回已注册的后端列表.
func GetRegisteredBackends() []configs.StorageBackend {
	backends := make([]configs.StorageBackend, 0, len(factories))
	for backend := range factories {
		backends = append(backends, backend)
	}

	return backends
}

// New 根据配置创建 Store 实例.
func New(ctx context.Context, cfg *configs.StorageConfig) (Store, error) {
	factory, exists := factories[cfg.Backend]
	if !exists {
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}

	return factory(ctx, cfg)
}

// RelPath 构造对象的标准相对路径 <project_id>/<blob_id><ext>.
func RelPath(projectID, blobID, ext string) string {
	return path.Join(projectID, blobID+ext)
}
