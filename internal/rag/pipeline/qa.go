package pipeline

import (
	"context"
	"errors"
	"strings"

	"insight-engine/internal/rag/interfaces"
	"insight-engine/internal/rag/schema"
	"insight-engine/pkg/circuitbreaker"
	"insight-engine/pkg/logger"
)

// Stage marks how far an answer attempt progressed before finishing or
// failing.
type Stage string

const (
	StageRetrieving Stage = "retrieving"
	StageGenerating Stage = "generating"
	StageAnswered   Stage = "answered"
)

// SourceRef identifies one chunk that grounded an answer.
type SourceRef struct {
	FileName string  `json:"file_name"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

// AnswerResult is the structured outcome of a question. Failures are
// recovered into Success=false with a Reason; Stage tells which step broke.
type AnswerResult struct {
	Success bool        `json:"success"`
	Answer  string      `json:"answer,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Stage   Stage       `json:"stage"`
	Sources []SourceRef `json:"sources,omitempty"`
}

// instruction keeps generated answers grounded in the retrieved context and
// short enough to read at a glance.
const instruction = "Use the given context to answer the question. " +
	"If you don't know the answer, say you don't know. " +
	"Use three sentences maximum and keep the answer concise."

// QAPipeline runs the retrieval-augmented question flow: embed the question,
// retrieve the closest chunks, and ask the LLM to answer strictly from them.
// The LLM call goes through a circuit breaker so a flapping model endpoint
// fails fast instead of stacking up timeouts.
type QAPipeline struct {
	retrieval *RetrievalPipeline
	llm       interfaces.LLM
	breaker   circuitbreaker.CircuitBreaker // optional
	topK      int
	log       *logger.Logger
}

// NewQAPipeline creates a new QAPipeline. breaker may be nil, in which case
// LLM calls are made directly.
func NewQAPipeline(
	retrieval *RetrievalPipeline,
	llm interfaces.LLM,
	breaker circuitbreaker.CircuitBreaker,
	topK int,
	log *logger.Logger,
) *QAPipeline {
	return &QAPipeline{
		retrieval: retrieval,
		llm:       llm,
		breaker:   breaker,
		topK:      topK,
		log:       log,
	}
}

// Answer resolves one question end to end. It never panics the caller with
// an error: every failure mode collapses into a structured result so the
// transport layer can render it directly.
func (p *QAPipeline) Answer(ctx context.Context, question string) AnswerResult {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerResult{Success: false, Reason: "question must not be empty", Stage: StageRetrieving}
	}

	chunks, err := p.retrieval.Run(ctx, question, p.topK)
	if err != nil {
		if errors.Is(err, ErrIndexUnavailable) {
			p.log.Info("question received before any document was ingested")
			return AnswerResult{Success: false, Reason: ErrIndexUnavailable.Error(), Stage: StageRetrieving}
		}
		p.log.WithError(err).Error("retrieval failed")
		return AnswerResult{Success: false, Reason: err.Error(), Stage: StageRetrieving}
	}

	prompt := buildPrompt(question, chunks)

	answer, err := p.generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			p.log.Warn("llm circuit open, rejecting question")
			return AnswerResult{Success: false, Reason: "answer service temporarily unavailable", Stage: StageGenerating}
		}
		p.log.WithError(err).Error("answer generation failed")
		return AnswerResult{Success: false, Reason: "failed to generate answer", Stage: StageGenerating}
	}

	sources := make([]SourceRef, len(chunks))
	for i, sc := range chunks {
		sources[i] = SourceRef{
			FileName: sc.Chunk.Source(),
			Snippet:  snippet(sc.Chunk.Text, 160),
			Score:    sc.Score,
		}
	}

	return AnswerResult{
		Success: true,
		Answer:  strings.TrimSpace(answer),
		Stage:   StageAnswered,
		Sources: sources,
	}
}

func (p *QAPipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.breaker == nil {
		return p.llm.Generate(ctx, prompt)
	}
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.llm.Generate(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// buildPrompt assembles the grounded prompt: instruction, the retrieved
// chunks as context blocks, then the question.
func buildPrompt(question string, chunks []schema.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nContext:\n")
	for _, sc := range chunks {
		b.WriteString("---\n")
		b.WriteString(sc.Chunk.Text)
		b.WriteString("\n")
	}
	b.WriteString("---\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
