// Package llm provides optional answer generation using langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Operation names reported to a UsageRecorder.
const (
	OpGenerate = "llm_generate"
	OpStream   = "llm_stream"
)

var (
	// ErrDisabled is returned by NewModel when no LLM provider is configured.
	ErrDisabled = errors.New("llm provider disabled")

	// ErrFatalAPI marks provider errors that will not go away on retry
	// (bad credentials, exhausted quota).
	ErrFatalAPI = errors.New("fatal llm api error")
)

// UsageRecorder receives timing and token counts per generation.
// *metrics.Collector satisfies it.
type UsageRecorder interface {
	RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64)
}

const answerSystemPrompt = `You are the EventNexus assistant. Answer the user's question based ONLY on the provided context about events, attendees and the platform.
If the context doesn't contain enough information to answer the question, say so.
Be concise and mention the specific events or people from the context where relevant.`

// Model wraps langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
	usage     UsageRecorder
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderNone, "":
		return nil, ErrDisabled

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// NewFromLLM wraps an existing langchaingo model.
func NewFromLLM(model llms.Model, name string) *Model {
	return &Model{llm: model, modelName: name}
}

// WithUsage sets the recorder that receives per-call usage.
func (m *Model) WithUsage(rec UsageRecorder) *Model {
	m.usage = rec
	return m
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// Generate generates text based on a prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	return response, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	m.record(OpGenerate, time.Since(start), response.Choices[0].GenerationInfo)
	return response.Choices[0].Content, nil
}

// GenerateWithSystemStream streams the completion chunk by chunk to onToken.
// An error from onToken aborts the generation.
func (m *Model) GenerateWithSystemStream(ctx context.Context, systemPrompt, userPrompt string, onToken func(token string) error) error {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onToken(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("generate stream: %w", wrapFatalError(err))
	}

	if len(response.Choices) > 0 {
		m.record(OpStream, time.Since(start), response.Choices[0].GenerationInfo)
	}
	return nil
}

// SynthesizeAnswer generates an answer from retrieved context and the query.
func (m *Model) SynthesizeAnswer(ctx context.Context, query string, context string) (string, error) {
	return m.GenerateWithSystem(ctx, answerSystemPrompt, answerPrompt(query, context))
}

// SynthesizeAnswerStream is the streaming variant of SynthesizeAnswer.
func (m *Model) SynthesizeAnswerStream(ctx context.Context, query string, context string, onToken func(token string) error) error {
	return m.GenerateWithSystemStream(ctx, answerSystemPrompt, answerPrompt(query, context), onToken)
}

func answerPrompt(query, context string) string {
	return fmt.Sprintf(`Context:
%s

Question: %s

Answer:`, context, query)
}

func (m *Model) record(op string, d time.Duration, info map[string]any) {
	if m.usage == nil {
		return
	}
	in := tokenCount(info, "PromptTokens", "InputTokens", "prompt_eval_count")
	out := tokenCount(info, "CompletionTokens", "OutputTokens", "eval_count")
	m.usage.RecordLLMUsage(op, d, in, out)
}

// tokenCount reads the first numeric generation-info key present. Providers
// disagree on key names.
func tokenCount(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err indicates a provider problem that a
// retry cannot fix.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal provider errors with ErrFatalAPI and passes
// everything else through unchanged.
func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
