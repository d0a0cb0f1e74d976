package embedding

import (
	"fmt"

	"insight-engine/internal/config"
	"insight-engine/internal/rag/interfaces"
)

// Provider 是一个枚举类型，用于表示不同的 embedding 模型厂商。
type Provider string

const (
	ProviderOllama Provider = "ollama" // Ollama 本地模型。
	ProviderOpenAI Provider = "openai" // OpenAI 模型。
	ProviderGemini Provider = "gemini" // Google Gemini 模型。
)

// NewModel 根据配置创建并返回一个新的 Embedding 模型实例。
//
// 参数:
//
//	cfg: embedding 配置，包含提供商、模型名称、API 密钥和基础 URL。
//
// 返回值:
//
//	interfaces.EmbeddingModel: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewModel(cfg config.EmbeddingConfig) (interfaces.EmbeddingModel, error) {
	// 根据提供商类型创建相应的 Embedding 模型实例。
	switch Provider(cfg.Provider) {
	case ProviderOllama:
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case ProviderOpenAI:
		return NewOpenAIModel(cfg.APIKey, cfg.Model)
	case ProviderGemini:
		return NewGeminiModel(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
