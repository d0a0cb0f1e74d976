package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8080")
}

// ChunkingConfig 定义了文本分块的参数。
// 注意：索引建立后修改这些参数不会重新分块已有条目。
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // 每个分块的最大字符数
	Overlap int `yaml:"overlap"` // 相邻分块之间的重叠字符数
}

// RetrievalConfig 定义了检索阶段的参数。
type RetrievalConfig struct {
	TopK int `yaml:"topK"` // 检索返回的最相关分块数量
}

// EmbeddingConfig 定义了 Embedding 模型的配置。
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // 提供商 (例如: "ollama", "openai", "google")
	Model    string `yaml:"model"`    // 模型名称
	BaseURL  string `yaml:"baseURL"`  // 服务地址 (仅 ollama 需要)
	APIKey   string `yaml:"apiKey"`   // API 密钥 (openai/google 需要)
}

// LLMConfig 定义了大语言模型的配置。
type LLMConfig struct {
	Provider string `yaml:"provider"` // 提供商 (例如: "ollama", "openai", "gemini")
	Model    string `yaml:"model"`    // 模型名称
	BaseURL  string `yaml:"baseURL"`  // 服务地址 (仅 ollama 需要)
	APIKey   string `yaml:"apiKey"`   // API 密钥 (openai/gemini 需要)
}

// StorageConfig 定义了索引和缓存在磁盘上的位置。
type StorageConfig struct {
	IndexDir  string `yaml:"indexDir"`  // 语料级向量索引目录
	CacheDir  string `yaml:"cacheDir"`  // 按 ContentKey 划分的文档级快照缓存目录
	UploadDir string `yaml:"uploadDir"` // 上传文件的临时暂存目录
}

// TokenBucketConfig 定义了令牌桶限流器的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"`     // 每秒生成的令牌数
	Capacity int     `yaml:"capacity"` // 桶容量（突发量）
}

// RateLimiterConfig 定义了针对外部 Embedding 服务的限流配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// CircuitBreakerConfig 定义了针对外部 LLM 服务的熔断配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"` // 连续失败多少次后熔断
	SuccessThreshold uint32 `yaml:"successThreshold"` // 半开状态下连续成功多少次后恢复
	Timeout          string `yaml:"timeout"`          // 熔断后等待多久进入半开状态 (例如: "30s")
}

// MiddlewareConfig 包含所有外部调用保护组件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Server     ServerConfig     `yaml:"server"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Storage    StorageConfig    `yaml:"storage"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig 从指定路径读取 YAML 配置文件并解析为 AppConfig。
func LoadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig

	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults 为未设置的配置项填充默认值。
func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Storage.IndexDir == "" {
		c.Storage.IndexDir = "data/vector_store"
	}
	if c.Storage.CacheDir == "" {
		c.Storage.CacheDir = "data/vectorstore_cache"
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "data/uploads"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "llama3:8b"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3:8b"
	}
}
