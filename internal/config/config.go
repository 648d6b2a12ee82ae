package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	// LLM 生成接口配置 (OpenAI兼容)
	LLM LLMConfig `yaml:"llm"`

	// 简历结构化抽取配置
	Extractor ExtractorConfig `yaml:"extractor"`

	// 匹配打分配置
	Scorer ScorerConfig `yaml:"scorer"`

	// 远程文档智能服务配置 (可为空，为空时退化为本地PDF解析)
	DocumentAI DocumentAIConfig `yaml:"document_ai"`

	// MinIO配置
	MinIO MinIOConfig `yaml:"minio"`

	// MySQL配置
	MySQL MySQLConfig `yaml:"mysql"`

	// Redis配置
	Redis RedisConfig `yaml:"redis"`

	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 链路追踪配置
	Tracing TracingConfig `yaml:"tracing"`
}

// LLMConfig OpenAI兼容的生成接口配置
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	APIURL string `yaml:"api_url"`
	Model  string `yaml:"model"`
}

// ExtractorConfig 简历结构化抽取配置
type ExtractorConfig struct {
	ModelName         string  `yaml:"modelName"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"maxTokens"`
	ExtractionTimeout string  `yaml:"extractionTimeout"` // 单次抽取超时，例如 "60s"
}

// ScorerConfig 匹配打分配置
type ScorerConfig struct {
	ModelName       string  `yaml:"modelName"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"maxTokens"`
	ScoreTimeout    string  `yaml:"scoreTimeout"`    // 单次打分超时
	DefaultStrategy string  `yaml:"defaultStrategy"` // "ai" 或 "heuristic"
}

// DocumentAIConfig 远程文档智能服务配置
type DocumentAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key,omitempty"`
	Timeout  int    `yaml:"timeout_seconds"`
}

// MinIOConfig MinIO配置结构
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	OriginalsBucket string `yaml:"originalsBucket"` // 原始简历存储桶
	Location        string `yaml:"location"`        // 可选，存储桶区域
	// 对象生命周期管理
	OriginalFileExpireDays int `yaml:"original_file_expire_days"` // 原始文件过期天数
}

// MySQLConfig MySQL配置结构
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"`
	MaxOpenConns int `yaml:"max_open_conns"`
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"`
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`
	// 日志级别(1-4)
	LogLevel int `yaml:"log_level"`
}

// RedisConfig Redis配置结构
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"`
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"`
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"`
	// 内容哈希记录过期时间(天)
	HashRecordExpireDays int `yaml:"hash_record_expire_days"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080"
	APIKey  string `yaml:"api_key"` // 非空时启用keyauth鉴权
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // 为空时不导出trace
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoadConfig 从文件加载配置，并用环境变量覆盖敏感项
func LoadConfig(configPath string) (*Config, error) {
	// .env 文件用于本地开发时注入API密钥，缺失时忽略
	_ = godotenv.Load()

	if configPath == "" {
		for _, path := range []string{"config.yaml", "./config.yaml", "../config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
		if configPath == "" {
			// 没有配置文件时返回默认配置，便于测试环境直接运行
			return createDefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	}
	if envURL := os.Getenv("LLM_API_URL"); envURL != "" {
		config.LLM.APIURL = envURL
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		config.LLM.Model = envModel
	}
	if envKey := os.Getenv("DOCUMENT_AI_API_KEY"); envKey != "" {
		config.DocumentAI.APIKey = envKey
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults 补齐缺失的默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Extractor.ExtractionTimeout == "" {
		config.Extractor.ExtractionTimeout = "60s"
	}
	if config.Extractor.Temperature == 0 {
		config.Extractor.Temperature = 0.05
	}
	if config.Extractor.MaxTokens == 0 {
		config.Extractor.MaxTokens = 8192
	}
	if config.Scorer.ScoreTimeout == "" {
		config.Scorer.ScoreTimeout = "30s"
	}
	if config.Scorer.Temperature == 0 {
		config.Scorer.Temperature = 0.1
	}
	if config.Scorer.MaxTokens == 0 {
		config.Scorer.MaxTokens = 2048
	}
	if config.Scorer.DefaultStrategy == "" {
		config.Scorer.DefaultStrategy = "ai"
	}
	if config.Tracing.ServiceName == "" {
		config.Tracing.ServiceName = "resume-screener"
	}
	if config.Tracing.SampleRatio == 0 {
		config.Tracing.SampleRatio = 1.0
	}
}

// createDefaultConfig 创建一份默认配置，主要用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}

	config.LLM.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	config.LLM.Model = "qwen-plus"
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	} else {
		config.LLM.APIKey = "test_api_key"
	}

	config.MinIO.Endpoint = "localhost:9000"
	config.MinIO.AccessKeyID = "minioadmin"
	config.MinIO.SecretAccessKey = "minioadmin123"
	config.MinIO.UseSSL = false
	config.MinIO.OriginalsBucket = "resume-originals"
	config.MinIO.OriginalFileExpireDays = 1095

	config.MySQL.Host = "localhost"
	config.MySQL.Port = 3306
	config.MySQL.Username = "root"
	config.MySQL.Password = "password"
	config.MySQL.Database = "resume_screener"
	config.MySQL.MaxIdleConns = 10
	config.MySQL.MaxOpenConns = 100
	config.MySQL.ConnMaxLifetimeMinutes = 60
	config.MySQL.ConnMaxIdleTimeMinutes = 30
	config.MySQL.ConnectTimeoutSeconds = 10
	config.MySQL.ReadTimeoutSeconds = 30
	config.MySQL.WriteTimeoutSeconds = 30
	config.MySQL.LogLevel = 2

	config.Redis.Address = "localhost:6379"
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.MinRetryBackoffMS = 8
	config.Redis.MaxRetryBackoffMS = 512
	config.Redis.ConnMaxLifetimeMinutes = 60
	config.Redis.ConnMaxIdleTimeMinutes = 30
	config.Redis.HashRecordExpireDays = 365

	config.Logger.Level = "info"
	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	applyDefaults(config)
	return config
}

// GetDuration 解析配置中的时长字符串，非法时返回默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
