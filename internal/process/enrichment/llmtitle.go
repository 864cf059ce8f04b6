package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/newsfold/linkresolver/internal/core/errors"
	"github.com/newsfold/linkresolver/internal/core/retry"
)

const (
	// llmUnknownSentinel is what the model is told to answer when it cannot
	// infer a plausible title. Anything containing it is discarded.
	llmUnknownSentinel = "UNKNOWN"

	llmMinTitleLen    = 4
	llmMaxTokens      = 64
	llmLimiterBurst   = 5
	llmTitlePromptFmt = `Infer a plausible, human-readable article title from this URL alone.
Do not invent specifics the URL does not support. Answer with the title only, no quotes.
If the URL carries no usable hints, answer exactly %s.

URL: %s
Site: %s`
)

// LLMTitleBackend asks a language model to guess a title from the URL
// path. It never sees the page, so its output is labeled a fallback, not
// an extraction. Disabled when no API key is configured.
type LLMTitleBackend struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewLLMTitleBackend(apiKey, model string, rps float64, logger *zerolog.Logger) *LLMTitleBackend {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	b := &LLMTitleBackend{
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), llmLimiterBurst),
		logger:  logger,
	}
	if apiKey != "" {
		b.client = openai.NewClient(apiKey)
	}

	return b
}

func (b *LLMTitleBackend) Name() string { return SourceLLM }

func (b *LLMTitleBackend) Available() bool { return b.client != nil }

func (b *LLMTitleBackend) Attempt(ctx context.Context, pageURL, domain string) (*Metadata, error) {
	prompt := fmt.Sprintf(llmTitlePromptFmt, llmUnknownSentinel, pageURL, domain)

	title, err := retry.Do(ctx, retry.Patient(), "llm title", func(ctx context.Context) (string, error) {
		return b.complete(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	title = strings.Trim(strings.TrimSpace(title), `"'`)
	if title == "" || len(title) < llmMinTitleLen || strings.Contains(title, llmUnknownSentinel) {
		return nil, nil
	}

	return &Metadata{Title: title}, nil
}

func (b *LLMTitleBackend) complete(ctx context.Context, prompt string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", errors.Classify(err, "llm rate limiter wait")
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     b.model,
		MaxTokens: llmMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Classify(err, "llm chat completion")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(errors.CodeParseFailure, "empty llm response", "llm chat completion")
	}

	return resp.Choices[0].Message.Content, nil
}
