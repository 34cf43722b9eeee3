package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	systemPrompt  = "You are a helpful assistant"
	brevityPrompt = "Give details in brief. Try to keep answer within 100 and 200 words"
)

// Roles accepted in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotConfigured = errors.New("chat assistant not configured")
	ErrEmptyReply    = errors.New("chat assistant returned no answer")
)

// Message is one turn of a conversation. Clients keep the history and send
// it with every request.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// Config selects the OpenAI-compatible endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Service answers study questions through an LLM.
type Service struct {
	llm     llms.Model
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOpenAIService builds a Service over an OpenAI-compatible API. It
// returns ErrNotConfigured without an API key.
func NewOpenAIService(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return NewService(llm, cfg.Timeout, logger), nil
}

func NewService(llm llms.Model, timeout time.Duration, logger zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		llm:     llm,
		timeout: timeout,
		logger:  logger.With().Str("component", "chat").Logger(),
	}
}

// Complete returns the assistant's reply to the conversation so far.
func (s *Service) Complete(ctx context.Context, history []Message) (string, error) {
	if s == nil || s.llm == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeSystem, brevityPrompt),
	}
	for _, m := range history {
		msgType := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			msgType = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(msgType, m.Content))
	}

	resp, err := s.llm.GenerateContent(ctx, content, llms.WithTemperature(0.7))
	if err != nil {
		s.logger.Warn().Err(err).Int("turns", len(history)).Msg("chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Content, nil
}
