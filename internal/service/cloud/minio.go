package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/solutions/mock-interview/internal/common/utils"
)

// MinioStorage 上传到 S3 兼容的对象存储。
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	urlPrefix string
}

func NewMinioStorage(conf utils.StorageConfig) (*MinioStorage, error) {
	endpoint := strings.TrimSpace(conf.Minio.Endpoint)
	if endpoint == "" {
		return nil, errors.New("object store: endpoint is required")
	}
	if conf.Bucket == "" {
		return nil, errors.New("object store: bucket is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(conf.Minio.AccessKey, conf.Minio.SecretKey, ""),
		Secure:       conf.Minio.UseSSL,
		Region:       conf.Minio.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: create client: %w", err)
	}
	urlPrefix := conf.URLPrefix
	if urlPrefix == "" {
		scheme := "http"
		if conf.Minio.UseSSL {
			scheme = "https"
		}
		urlPrefix = fmt.Sprintf("%s://%s/%s", scheme, endpoint, conf.Bucket)
	}
	return &MinioStorage{client: client, bucket: conf.Bucket, urlPrefix: urlPrefix}, nil
}

func (m *MinioStorage) Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) (string, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		defaultLogger.Errorf("object store: put %s failed, error %v", key, err)
		return "", fmt.Errorf("object store: put object: %w", err)
	}
	defaultLogger.Infof("object %s uploaded, size %d", info.Key, info.Size)
	return joinURL(m.urlPrefix, key), nil
}
