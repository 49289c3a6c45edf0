// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	qconfig "github.com/qiniu/x/config"
)

var (
	DefaultConf Config
)

// InitConf 加载 .env 与配置文件到 DefaultConf，失败时退出进程。
func InitConf(configFilePath string) {
	conf, err := LoadConf(configFilePath)
	if err != nil {
		log.Fatalf("failed to load config file, error %v", err)
	}
	DefaultConf = *conf
}

// LoadConf 读取配置文件，以样例配置为默认值，再用环境变量覆盖密钥类配置。
func LoadConf(configFilePath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configFilePath), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load %s, error %v", envPath, err)
	}
	conf := NewSample()
	if err := qconfig.LoadFile(conf, configFilePath); err != nil {
		return nil, err
	}
	conf.ApplyEnv()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// MongoConfig mongo 数据库配置。
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// AuthConfig 登录态相关配置。
type AuthConfig struct {
	JwtKey string `json:"jwt_key"`
	// CookieName 存放登录 token 的 cookie 名。
	CookieName string `json:"cookie_name"`
	// TokenExpireSecond 登录 token 的有效时间。
	TokenExpireSecond int  `json:"token_expire_s"`
	SecureCookie      bool `json:"secure_cookie"`
	// AllowOrigins 允许携带 cookie 跨域访问的前端地址。
	AllowOrigins []string `json:"allow_origins"`
}

// InterviewConfig 模拟面试流程配置。
type InterviewConfig struct {
	// QuestionCount 每场面试默认的问题数。
	QuestionCount int `json:"question_count"`
	// AnswerMaxLength 单个回答保留的最大字符数。
	AnswerMaxLength int `json:"answer_max_len"`
	// StaleHours 超过该时长仍未结束的面试会被定时任务置为放弃。
	StaleHours int `json:"stale_hours"`
}

// ProctorConfig 防作弊监考配置。
type ProctorConfig struct {
	MaxViolations int `json:"max_violations"`
	// DebounceMillis 同一次切屏常伴随多条事件，该窗口内只记一次违规。
	DebounceMillis int `json:"debounce_ms"`
	// EventLogFile 违规事件流水文件，按大小滚动。
	EventLogFile string `json:"event_log_file"`
}

// LLMConfig 出题与评估所用大模型配置。
type LLMConfig struct {
	// Provider gemini / openai / bank。
	Provider      string `json:"provider"`
	GeminiAPIKey  string `json:"gemini_api_key"`
	GeminiModel   string `json:"gemini_model"`
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIModel   string `json:"openai_model"`
	OpenAIBaseURL string `json:"openai_base_url"`
	TimeoutSecond int    `json:"timeout_s"`
	Attempts      int    `json:"attempts"`
}

// QiniuKeyPair 七牛APIaccess key/secret key配置。
type QiniuKeyPair struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// MinioConfig S3 兼容对象存储配置。
type MinioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
}

// StorageConfig 简历文件存储配置。
type StorageConfig struct {
	// Provider kodo / minio / local。
	Provider string `json:"provider"`
	Bucket   string `json:"bucket"`
	Prefix   string `json:"prefix"`
	// URLPrefix 上传的文件的下载URL前缀，一般为该bucket对应的默认域名。
	URLPrefix      string       `json:"url_prefix"`
	LocalRoot      string       `json:"local_root"`
	MaxUploadBytes int64        `json:"max_upload_bytes"`
	AllowedExts    []string     `json:"allowed_exts"`
	QiniuKeyPair   QiniuKeyPair `json:"qiniu_key_pair"`
	Minio          MinioConfig  `json:"minio"`
}

// KafkaConfig 面试事件投递配置。
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// Config 后端配置。
type Config struct {
	// debug等级，为1时输出info/warn/error日志，为0除以上外还输出debug日志
	DebugLevel     int             `json:"debug_level"`
	ListenAddr     string          `json:"listen_addr"`
	DefaultAvatars []string        `json:"default_avatars"`
	MetricsEnabled bool            `json:"metrics_enabled"`
	Mongo          *MongoConfig    `json:"mongo"`
	Auth           AuthConfig      `json:"auth"`
	Interview      InterviewConfig `json:"interview"`
	Proctor        ProctorConfig   `json:"proctor"`
	LLM            LLMConfig       `json:"llm"`
	Storage        StorageConfig   `json:"storage"`
	Kafka          KafkaConfig     `json:"kafka"`
}

// ApplyEnv 用环境变量覆盖配置中的敏感字段。
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("MONGO_URI")); v != "" {
		if c.Mongo == nil {
			c.Mongo = &MongoConfig{}
		}
		c.Mongo.URI = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_KEY")); v != "" {
		c.Auth.JwtKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		c.LLM.GeminiAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		c.LLM.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
}

// Validate 检查启动所必需的配置项。
func (c *Config) Validate() error {
	if c.Mongo == nil {
		return errors.New("mongo: config section is required")
	}
	err := validation.ValidateStruct(c,
		validation.Field(&c.ListenAddr, validation.Required),
	)
	if err != nil {
		return err
	}
	err = validation.ValidateStruct(c.Mongo,
		validation.Field(&c.Mongo.URI, validation.Required),
		validation.Field(&c.Mongo.Database, validation.Required),
	)
	if err != nil {
		return err
	}
	err = validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.JwtKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Auth.CookieName, validation.Required),
		validation.Field(&c.Auth.TokenExpireSecond, validation.Min(60)),
	)
	if err != nil {
		return err
	}
	err = validation.ValidateStruct(&c.Interview,
		validation.Field(&c.Interview.QuestionCount, validation.Min(1), validation.Max(20)),
		validation.Field(&c.Interview.AnswerMaxLength, validation.Min(1)),
	)
	if err != nil {
		return err
	}
	err = validation.ValidateStruct(&c.Proctor,
		validation.Field(&c.Proctor.MaxViolations, validation.Min(1)),
		validation.Field(&c.Proctor.DebounceMillis, validation.Min(0)),
	)
	if err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Storage,
		validation.Field(&c.Storage.Provider, validation.In("kodo", "minio", "local")),
		validation.Field(&c.Storage.MaxUploadBytes, validation.Min(int64(1))),
	)
}

// NewSample 返回样例配置。
func NewSample() *Config {
	return &Config{
		DebugLevel:     1,
		ListenAddr:     ":8080",
		DefaultAvatars: []string{"1.jpg"},
		MetricsEnabled: true,
		Mongo: &MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "mock_interview",
		},
		Auth: AuthConfig{
			JwtKey:            os.Getenv("JWT_KEY"),
			CookieName:        "token",
			TokenExpireSecond: 7 * 24 * 3600,
			AllowOrigins:      []string{"http://localhost:3000"},
		},
		Interview: InterviewConfig{
			QuestionCount:   5,
			AnswerMaxLength: 5000,
			StaleHours:      24,
		},
		Proctor: ProctorConfig{
			MaxViolations:  3,
			DebounceMillis: 1500,
			EventLogFile:   "logs/proctor-events.log",
		},
		LLM: LLMConfig{
			Provider:      "bank",
			GeminiModel:   "gemini-2.5-flash",
			OpenAIModel:   "gpt-4o-mini",
			OpenAIBaseURL: "https://api.openai.com",
			TimeoutSecond: 30,
			Attempts:      3,
		},
		Storage: StorageConfig{
			Provider:       "local",
			Prefix:         "resumes",
			LocalRoot:      "uploads",
			URLPrefix:      "/uploads",
			MaxUploadBytes: 5 << 20,
			AllowedExts:    []string{".pdf", ".doc", ".docx", ".txt"},
		},
		Kafka: KafkaConfig{
			Topic: "mock-interview-events",
		},
	}
}
