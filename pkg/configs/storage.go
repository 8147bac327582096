package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// StorageBackend Blob 存储后端类型.
type StorageBackend string

const (
	// StorageFS 本地文件系统，按 <root>/<project_id>/<blob_id><ext> 布局.
	StorageFS StorageBackend = "fs"
	// StorageS3 S3 兼容对象存储（MinIO 等）.
	StorageS3 StorageBackend = "s3"
)

const (
	DefaultStorageBackend = StorageFS         // 默认存储后端
	DefaultStorageRoot    = "data/blobs"      // 默认本地存储根目录
	DefaultStorageBucket  = "enervision"      // 默认 S3 桶名称
	DefaultS3Endpoint     = "localhost:9000"  // 默认 S3 端点
	DefaultS3AccessKey    = "minioadmin"      // 默认访问密钥ID
	DefaultS3SecretKey    = "minioadmin"      // 默认秘密访问密钥
	DefaultS3UseSSL       = false             // 默认是否使用SSL
	DefaultS3Region       = "us-east-1"       // 默认区域
)

// StorageConfig Blob 存储配置. 核心流水线只依赖相对路径，后端可切换.
type StorageConfig struct {
	Backend StorageBackend `mapstructure:"backend" rule:"oneof=fs s3"`
	// Root 本地文件系统根目录（backend=fs 时必填）
	Root string `mapstructure:"root"`
	// Bucket 逻辑桶名：fs 后端仅作为元数据记录，s3 后端为真实桶
	Bucket string   `mapstructure:"bucket"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config MinIO/S3 存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
}

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置存储配置的默认值.
func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", string(DefaultStorageBackend))
	v.SetDefault("storage.root", DefaultStorageRoot)
	v.SetDefault("storage.bucket", DefaultStorageBucket)
	v.SetDefault("storage.s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("storage.s3.access_key_id", DefaultS3AccessKey)
	v.SetDefault("storage.s3.secret_access_key", DefaultS3SecretKey)
	v.SetDefault("storage.s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("storage.s3.region", DefaultS3Region)
}
