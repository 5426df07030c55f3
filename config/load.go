package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STUDYFORGE_SERVER_ADDR.
const EnvPrefix = "STUDYFORGE"

var defaults = map[string]any{
	"server.addr":       ":8080",
	"server.log_level":  "info",
	"server.log_format": "text",

	"storage.backend":        StorageMemory,
	"storage.path":           "",
	"storage.redis_addr":     "",
	"storage.redis_password": "",
	"storage.redis_db":       0,
	"storage.retention":      "24h",

	"ai.backend":              "openai",
	"ai.completion_host":      "https://api.deepseek.com/v1",
	"ai.completion_model":     "deepseek-chat",
	"ai.completion_api_key":   "",
	"ai.embedding_host":       "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"ai.embedding_model":      "text-embedding-v4",
	"ai.embedding_api_key":    "",
	"ai.embedding_dimensions": 1024,
	"ai.temperature":          0.3,

	"oss.region":            "oss-cn-hangzhou",
	"oss.bucket":            "",
	"oss.access_key_id":     "",
	"oss.access_key_secret": "",
	"oss.endpoint":          "",
	"oss.timeout":           "5m",

	"tencent.secret_id":  "",
	"tencent.secret_key": "",
	"tencent.region":     "ap-guangzhou",
	"tencent.endpoint":   "https://asr.tencentcloudapi.com",
	"tencent.engine":     "16k_zh_video",

	"media.ffmpeg":          "ffmpeg",
	"media.aria2c":          "aria2c",
	"media.ytdlp":           "yt-dlp",
	"media.youtube_api_key": "",
	"media.work_dir":        "",

	"pipeline.max_tasks":      4,
	"pipeline.min_duration":   "2m",
	"pipeline.max_duration":   "1h",
	"pipeline.segment_length": "5m",
	"pipeline.poll_interval":  "10s",
	"pipeline.max_polls":      60,

	"literature.base_url": "https://api.crossref.org",
	"literature.mailto":   "",
	"literature.rows":     5,
}

// Load reads configuration. Values come, in rising precedence, from
// defaults, the YAML file at path (skipped when path is empty) and the
// environment. A .env file in the working directory is loaded into the
// environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.AI.Backend == "openai" && c.AI.CompletionHost == "" {
		return errors.New("configuration validation failed: ai.completion_host is required for the openai backend")
	}
	return nil
}

// OSSEnabled reports whether object storage credentials are present.
func (c *Config) OSSEnabled() bool {
	return c.OSS.Bucket != "" && c.OSS.AccessKeyID != "" && c.OSS.AccessKeySecret != ""
}
