// Package ollama is the llm.Provider backed by a local Ollama server.
//
// Importing the package registers it under the name "ollama".
package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bimmerbailey/logsift/internal/config"
	"github.com/bimmerbailey/logsift/internal/llm"
	"github.com/ollama/ollama/api"
)

const (
	// ProviderName is the llm.provider value selecting this backend.
	ProviderName = "ollama"

	// DefaultModel is used when no model is configured.
	DefaultModel = "llama3.2"
)

func init() {
	llm.Register(ProviderName, func(cfg *config.Config, logger *slog.Logger) (llm.Provider, error) {
		return New(cfg.LLM.Ollama, logger)
	})
}

// Client talks to one Ollama server.
type Client struct {
	api       *api.Client
	model     string
	numCtx    int
	keepAlive *api.Duration
	logger    *slog.Logger
}

var _ llm.Provider = (*Client)(nil)

// New creates a client for cfg.Host, or for OLLAMA_HOST (default
// http://localhost:11434) when Host is empty. A nil logger discards output.
func New(cfg config.OllamaConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	apiClient, err := newAPIClient(cfg.Host)
	if err != nil {
		return nil, err
	}

	c := &Client{
		api:    apiClient,
		model:  cfg.Model,
		numCtx: cfg.NumCtx,
		logger: logger,
	}
	if c.model == "" {
		c.model = DefaultModel
	}

	if cfg.KeepAlive != "" {
		d, err := config.ParseDuration(cfg.KeepAlive)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama keep_alive: %w", err)
		}
		c.keepAlive = &api.Duration{Duration: d}
	}

	logger.Debug("ollama client ready", "host", cfg.Host, "model", c.model)
	return c, nil
}

func newAPIClient(host string) (*api.Client, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
		}
		return client, nil
	}

	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: want scheme://host:port", host)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

// Complete sends messages and waits for the whole answer.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	return c.chat(ctx, messages, opts, nil)
}

// Stream sends messages and hands each answer fragment to fn as it arrives.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions, fn llm.TokenFunc) (*llm.Response, error) {
	if fn == nil {
		return nil, errors.New("ollama: nil token callback")
	}
	return c.chat(ctx, messages, opts, fn)
}

// chat runs one request. A nil fn asks the server for a single response.
func (c *Client) chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions, fn llm.TokenFunc) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.ErrEmptyConversation
	}
	req := c.request(messages, opts, fn != nil)

	c.logger.Debug("sending chat request",
		"model", req.Model, "messages", len(messages), "stream", fn != nil)

	var (
		answer strings.Builder
		resp   = &llm.Response{Model: req.Model}
		fnErr  error
	)
	err := c.api.Chat(ctx, req, func(r api.ChatResponse) error {
		if text := r.Message.Content; text != "" {
			answer.WriteString(text)
			if fn != nil {
				if fnErr = fn(text); fnErr != nil {
					return fnErr
				}
			}
		}
		if r.Done {
			if r.Model != "" {
				resp.Model = r.Model
			}
			resp.Usage = llm.Usage{
				PromptTokens:     r.PromptEvalCount,
				CompletionTokens: r.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, c.chatError(ctx, req.Model, err, fnErr)
	}

	resp.Content = answer.String()
	c.logger.Debug("chat request completed",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp, nil
}

// chatError maps a failed request onto the llm sentinels.
func (c *Client) chatError(ctx context.Context, model string, err, fnErr error) error {
	if fnErr != nil {
		return fnErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", llm.ErrContextCanceled, ctxErr)
	}

	var status api.StatusError
	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %s", llm.ErrModelNotFound, model, status.ErrorMessage)
	}

	c.logger.Error("chat request failed", "model", model, "error", err)
	return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
}

func (c *Client) request(messages []llm.Message, opts *llm.ChatOptions, stream bool) *api.ChatRequest {
	req := &api.ChatRequest{
		Model:     c.model,
		Messages:  make([]api.Message, 0, len(messages)),
		Options:   map[string]any{"temperature": float32(0)},
		Stream:    &stream,
		KeepAlive: c.keepAlive,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, api.Message{Role: m.Role, Content: m.Content})
	}

	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		req.Options["temperature"] = opts.Temperature
		if opts.MaxTokens > 0 {
			req.Options["num_predict"] = opts.MaxTokens
		}
	}
	if c.numCtx > 0 {
		req.Options["num_ctx"] = c.numCtx
	}
	return req
}

// Heartbeat checks that the server answers.
func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.api.Heartbeat(ctx); err != nil {
		c.logger.Debug("ollama heartbeat failed", "error", err)
		return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}
	return nil
}

// ModelAvailable reports whether model has been pulled. A name without a tag
// matches its ":latest" variant, the way the ollama CLI resolves it.
func (c *Client) ModelAvailable(ctx context.Context, model string) (bool, error) {
	list, err := c.api.List(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	tagged := model
	if !strings.Contains(tagged, ":") {
		tagged += ":latest"
	}
	for _, m := range list.Models {
		if m.Name == model || m.Model == model || m.Name == tagged || m.Model == tagged {
			return true, nil
		}
	}

	c.logger.Debug("model not pulled", "model", model, "pulled", len(list.Models))
	return false, nil
}
