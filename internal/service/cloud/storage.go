package cloud

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
)

var (
	defaultLogger = xlog.New("default service logger")
)

// Storage 简历文件存储，返回可访问的URL。
type Storage interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) (string, error)
}

// NewStorage 按配置选择 kodo / minio / local。
func NewStorage(conf utils.StorageConfig) (Storage, error) {
	switch conf.Provider {
	case "kodo":
		return NewKodoStorage(conf), nil
	case "minio":
		return NewMinioStorage(conf)
	case "local", "":
		return NewLocalStorage(conf.LocalRoot, conf.URLPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", conf.Provider)
	}
}

// ResumeKey 生成 <prefix>/<userID>/<毫秒时间戳>-<文件名>。
func ResumeKey(prefix, userID, fileName string, now time.Time) string {
	name := SanitizeFileName(fileName)
	return path.Join(prefix, userID, fmt.Sprintf("%d-%s", now.UnixNano()/int64(time.Millisecond), name))
}

// SanitizeFileName 只保留字母数字与 . _ -，其余替换为下划线。
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	if out == "" {
		out = "resume"
	}
	return out
}

func joinURL(prefix, key string) string {
	if prefix == "" {
		return "/" + key
	}
	return strings.TrimRight(prefix, "/") + "/" + key
}
