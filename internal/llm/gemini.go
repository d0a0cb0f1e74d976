package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"insight-engine/internal/rag/interfaces"
)

// Gemini 是一个用于 Google Gemini API 的 LLM 客户端。
type Gemini struct {
	model *genai.GenerativeModel // Gemini 生成模型实例。
}

var _ interfaces.LLM = (*Gemini)(nil)

// NewGemini 创建一个新的 Gemini LLM 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端初始化的生命周期。
//	model: 要使用的模型名称。
//	apiKey: Google GenAI 的 API 密钥。
//
// 返回值:
//
//	*Gemini: 新创建的 Gemini 客户端实例。
//	error: 如果无法创建 GenAI 客户端，则返回错误。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{
		model: client.GenerativeModel(model),
	}, nil
}

// Generate 使用 Gemini API 生成单轮补全。
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String(), nil
}
