package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/sony/gobreaker"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/storage/s3"
)

// S3BlobStore 基于 MinIO 的 BlobStore，调用经过熔断器.
type S3BlobStore struct {
	client *s3.Client
	bucket string
	cb     *gobreaker.CircuitBreaker
}

// NewS3BlobStore 使用文档 bucket 构造 BlobStore；cbCfg 为 nil 或未启用时不熔断.
func NewS3BlobStore(client *s3.Client, cbCfg *configs.CircuitBreakerConfig) *S3BlobStore {
	store := &S3BlobStore{client: client, bucket: client.Bucket()}

	if cbCfg != nil && cbCfg.Enabled {
		store.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "blob-store",
			MaxRequests: cbCfg.MaxRequestsInHalf,
			Interval:    cbCfg.Interval(),
			Timeout:     cbCfg.Timeout(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return cbCfg.ShouldTrip(counts.Requests, counts.TotalFailures)
			},
		})
	}

	return store
}

func (s *S3BlobStore) guard(fn func() (any, error)) (any, error) {
	if s.cb == nil {
		return fn()
	}

	return s.cb.Execute(fn)
}

func (s *S3BlobStore) Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) error {
	_, err := s.guard(func() (any, error) {
		return s.client.PutObject(ctx, s.bucket, p, r, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
	})
	if err != nil {
		return &StorageError{Op: "put", Path: p, Err: err}
	}

	return nil
}

func (s *S3BlobStore) Delete(ctx context.Context, p string) error {
	_, err := s.guard(func() (any, error) {
		return nil, s.client.RemoveObject(ctx, s.bucket, p, minio.RemoveObjectOptions{})
	})
	if err != nil {
		return &StorageError{Op: "delete", Path: p, Err: err}
	}

	return nil
}

// SignedURL 生成预签名 GET 地址，下载时保留原文件名.
func (s *S3BlobStore) SignedURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", path.Base(p)))

	res, err := s.guard(func() (any, error) {
		return s.client.PresignedGetObject(ctx, s.bucket, p, ttl, params)
	})
	if err != nil {
		return "", &StorageError{Op: "sign", Path: p, Err: err}
	}

	return res.(*url.URL).String(), nil
}
