package ai

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/config"
)

const systemPrompt = "You are a helpful AI assistant specialized in creative design, " +
	"mood boards, and artistic inspiration. Provide helpful, creative advice for design projects."

// fallbackResponses are served when the model is disabled or unreachable.
var fallbackResponses = []string{
	"That's a fascinating question! I'd love to help you explore that topic further.",
	"Great question! Let me think about that... What specific aspect interests you most?",
	"I find that really interesting! Could you tell me more about what you're working on?",
	"That's a wonderful inquiry! How does this relate to your creative project?",
	"I'm excited to help with that! What's your current creative focus?",
}

// completer abstracts the model call so tests can substitute a fake.
type completer interface {
	complete(ctx context.Context, message string) (string, error)
}

// anthropicCompleter calls the Anthropic Messages API.
type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func (c *anthropicCompleter) complete(ctx context.Context, message string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Assistant answers design questions via the configured chat model,
// degrading to canned responses when the model is unavailable.
type Assistant struct {
	completer completer
	enabled   bool
	logger    *zap.Logger
	intn      func(n int) int
}

// NewAssistant creates an Assistant from the AI configuration. The
// Anthropic client reads its API key from the environment.
//
// Precondition: logger must be non-nil.
func NewAssistant(cfg config.AIConfig, logger *zap.Logger) *Assistant {
	return &Assistant{
		completer: &anthropicCompleter{
			client:    anthropic.NewClient(),
			model:     cfg.Model,
			maxTokens: int64(cfg.MaxTokens),
		},
		enabled: cfg.Enabled,
		logger:  logger,
		intn:    rand.Intn,
	}
}

// Chat returns the assistant's reply to the given message. A model
// failure never surfaces to the caller; the reply falls back to one of
// the canned responses instead.
//
// Precondition: message must be non-empty.
// Postcondition: Returns a non-empty reply.
func (a *Assistant) Chat(ctx context.Context, message string) string {
	if !a.enabled {
		return a.fallback()
	}

	start := time.Now()
	reply, err := a.completer.complete(ctx, message)
	if err != nil {
		a.logger.Warn("assistant completion failed, serving fallback",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return a.fallback()
	}
	if reply == "" {
		return "I'm here to help you with your creative projects! How can I assist you today?"
	}

	a.logger.Debug("assistant completion served",
		zap.Int("reply_chars", len(reply)),
		zap.Duration("elapsed", time.Since(start)))
	return reply
}

func (a *Assistant) fallback() string {
	return fallbackResponses[a.intn(len(fallbackResponses))]
}
