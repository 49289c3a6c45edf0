package cloud

import (
	"context"
	"io"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"

	"github.com/solutions/mock-interview/internal/common/utils"
)

// KodoStorage 上传到七牛云对象存储。
type KodoStorage struct {
	bucket    string
	urlPrefix string
	keyPair   utils.QiniuKeyPair
}

func NewKodoStorage(conf utils.StorageConfig) *KodoStorage {
	return &KodoStorage{
		bucket:    conf.Bucket,
		urlPrefix: conf.URLPrefix,
		keyPair:   conf.QiniuKeyPair,
	}
}

func (k *KodoStorage) Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) (string, error) {
	mac := qbox.NewMac(k.keyPair.AccessKey, k.keyPair.SecretKey)
	putPolicy := storage.PutPolicy{
		Scope: k.bucket + ":" + key,
	}
	upToken := putPolicy.UploadToken(mac)
	cfg := storage.Config{}
	// 是否使用https域名
	cfg.UseHTTPS = true
	// 上传是否使用CDN上传加速
	cfg.UseCdnDomains = false
	formUploader := storage.NewFormUploader(&cfg)
	ret := storage.PutRet{}
	err := formUploader.Put(ctx, &ret, upToken, key, r, size, &storage.PutExtra{MimeType: contentType})
	if err != nil {
		defaultLogger.Errorf("file uploading failed err:%v", err)
		return "", err
	}
	defaultLogger.Infof("file %s upload success, hash %s", ret.Key, ret.Hash)
	return joinURL(k.urlPrefix, key), nil
}
