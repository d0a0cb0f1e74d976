package llm

import (
	"context"
	"fmt"

	"insight-engine/internal/config"
	"insight-engine/internal/rag/interfaces"
)

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
//
// 参数:
//
//	cfg: LLM 配置，包含提供商、模型名称、API 密钥和基础 URL。
//
// 返回值:
//
//	interfaces.LLM: 新创建的 LLM 客户端实例。
//	error: 如果提供商不支持或客户端初始化失败，则返回错误。
func NewClient(cfg config.LLMConfig) (interfaces.LLM, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey)
	case "gemini":
		return NewGemini(context.Background(), cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
