package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"deepchat/internal/apperr"
	"deepchat/internal/config"
	"deepchat/internal/models"
)

const (
	defaultBackoff = 500 * time.Millisecond
	logPreviewLen  = 100
)

// NewChatModel builds the provider's eino chat model. DeepSeek speaks the OpenAI protocol.
func NewChatModel(ctx context.Context, cfg config.ModelConfig) (model.BaseChatModel, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch cfg.Provider {
	case "deepseek", "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.APIKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("new gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if cfg.BaseURL != "" {
			baseURLPtr = &cfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: models.DefaultMaxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}
	return chatModel, nil
}

// Client invokes the chat model with per-request sampling settings and a fixed retry budget.
// Calls carry no timeout of their own.
type Client struct {
	model      model.BaseChatModel
	modelName  string
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

type Option func(*Client)

// WithBackoff sets the base delay between attempts; attempt n waits n*d.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(chatModel model.BaseChatModel, modelName string, maxRetries int, opts ...Option) *Client {
	c := &Client{
		model:      chatModel,
		modelName:  modelName,
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends messages and returns the response text. Failures are upstream errors
// carrying the provider's error text.
func (c *Client) Generate(ctx context.Context, messages []*schema.Message, settings models.Resolved) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages to send")
	}
	log := c.logger(ctx)
	log.Info().
		Str("model", c.modelName).
		Str("preview", preview(messages[len(messages)-1].Content)).
		Float64("temperature", settings.Temperature).
		Float64("top_p", settings.TopP).
		Int("max_tokens", settings.MaxTokens).
		Msg("sending message to model")

	opts := []model.Option{
		model.WithTemperature(float32(settings.Temperature)),
		model.WithTopP(float32(settings.TopP)),
		model.WithMaxTokens(settings.MaxTokens),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return "", apperr.Upstream(lastErr)
			}
		}
		resp, err := c.model.Generate(ctx, messages, opts...)
		if err == nil {
			if resp == nil {
				return "", apperr.Upstream(errors.New("model returned no message"))
			}
			log.Info().Int("attempt", attempt+1).Int("response_len", len(resp.Content)).Msg("received model response")
			return resp.Content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("model call failed")
	}
	return "", apperr.Upstream(lastErr)
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &c.log
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= logPreviewLen {
		return s
	}
	return string(r[:logPreviewLen]) + "..."
}
