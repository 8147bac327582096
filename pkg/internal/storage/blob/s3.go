package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/luoxiv/enervision/pkg/configs"
	nlog "github.com/luoxiv/enervision/pkg/log"
)

// s3Store S3 兼容存储后端（MinIO 客户端）.
type s3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store 创建 S3 存储，若 bucket 不存在则尝试创建.
func NewS3Store(ctx context.Context, cfg *configs.StorageConfig) (Store, error) {
	s3cfg := cfg.S3
	endpoint := s3cfg.Endpoint

	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			s3cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		Secure: s3cfg.UseSSL,
		Region: s3cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("enervision", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: s3cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", s3cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return &s3Store{client: cli, bucket: cfg.Bucket}, nil
}

func (s *s3Store) Put(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, relPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", relPath, err)
	}

	return nil
}

func (s *s3Store) Get(ctx context.Context, relPath string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, relPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", relPath, err)
	}

	// GetObject 懒加载，Stat 触发一次请求以便尽早报告缺失
	if _, err := obj.Stat(); err != nil {
		obj.Close()

		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("stat object %s: %w", relPath, err)
	}

	return obj, nil
}

func (s *s3Store) Exists(ctx context.Context, relPath string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, relPath, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (s *s3Store) Delete(ctx context.Context, relPath string) error {
	return s.client.RemoveObject(ctx, s.bucket, relPath, minio.RemoveObjectOptions{})
}

func (s *s3Store) Close() error { return nil }

func init() {
	RegisterFactory(configs.StorageS3, NewS3Store)
}
