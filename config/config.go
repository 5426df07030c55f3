// Package config loads application settings from an optional YAML file,
// a .env file and STUDYFORGE_ environment variables.
package config

import "time"

// Storage backend names.
const (
	StorageMemory = "memory"
	StorageBadger = "badger"
	StorageRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	AI         AIConfig         `mapstructure:"ai"`
	OSS        OSSConfig        `mapstructure:"oss"`
	Tencent    TencentConfig    `mapstructure:"tencent"`
	Media      MediaConfig      `mapstructure:"media"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Literature LiteratureConfig `mapstructure:"literature"`
}

// ServerConfig contains the HTTP listener and log settings.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"       validate:"required"`
	LogLevel  string `mapstructure:"log_level"  validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=text json"`
}

// StorageConfig selects and configures the task store.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger redis"`
	// Path is the badger directory. Empty keeps badger in memory.
	Path          string        `mapstructure:"path"`
	RedisAddr     string        `mapstructure:"redis_addr"     validate:"required_if=Backend redis"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"       validate:"gte=0"`
	Retention     time.Duration `mapstructure:"retention"      validate:"gte=0"`
}

// AIConfig mirrors ai.Config.
type AIConfig struct {
	Backend             string  `mapstructure:"backend"              validate:"required,oneof=openai gemini"`
	CompletionHost      string  `mapstructure:"completion_host"`
	CompletionModel     string  `mapstructure:"completion_model"     validate:"required"`
	CompletionAPIKey    string  `mapstructure:"completion_api_key"`
	EmbeddingHost       string  `mapstructure:"embedding_host"       validate:"required,url"`
	EmbeddingModel      string  `mapstructure:"embedding_model"      validate:"required"`
	EmbeddingAPIKey     string  `mapstructure:"embedding_api_key"`
	EmbeddingDimensions int     `mapstructure:"embedding_dimensions" validate:"gt=0"`
	Temperature         float64 `mapstructure:"temperature"          validate:"gte=0,lte=2"`
}

// OSSConfig configures the Aliyun OSS bucket for media and segments.
type OSSConfig struct {
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	AccessKeySecret string        `mapstructure:"access_key_secret"`
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// TencentConfig configures Tencent Cloud speech recognition.
type TencentConfig struct {
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	Engine    string `mapstructure:"engine"`
}

// MediaConfig names the external tools and platform keys.
type MediaConfig struct {
	FFmpeg        string `mapstructure:"ffmpeg"          validate:"required"`
	Aria2c        string `mapstructure:"aria2c"          validate:"required"`
	YtDlp         string `mapstructure:"ytdlp"           validate:"required"`
	YouTubeAPIKey string `mapstructure:"youtube_api_key"`
	// WorkDir is the parent of per-task temporary directories.
	WorkDir string `mapstructure:"work_dir"`
}

// PipelineConfig bounds the analysis workflow.
type PipelineConfig struct {
	MaxTasks      int           `mapstructure:"max_tasks"      validate:"gt=0"`
	MinDuration   time.Duration `mapstructure:"min_duration"   validate:"gte=0"`
	MaxDuration   time.Duration `mapstructure:"max_duration"   validate:"gtfield=MinDuration"`
	SegmentLength time.Duration `mapstructure:"segment_length" validate:"gt=0"`
	PollInterval  time.Duration `mapstructure:"poll_interval"  validate:"gt=0"`
	MaxPolls      int           `mapstructure:"max_polls"      validate:"gt=0"`
}

// LiteratureConfig configures the CrossRef search.
type LiteratureConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Mailto joins CrossRef's polite pool when set.
	Mailto string `mapstructure:"mailto"`
	Rows   int    `mapstructure:"rows"     validate:"gt=0,lte=50"`
}
