package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/entity"
	pkghttp "github.com/dmelnik/twin-backend/pkg/http"
)

const (
	anthropicVersion  = "2023-06-01"
	messagesEndpoint  = "/v1/messages"
	sseDataPrefix     = "data: "
	maxStreamLineSize = 1 << 20
)

// AnthropicConnector drives the Anthropic Messages API.
type AnthropicConnector struct {
	config    config.AnthropicConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewAnthropicConnector(cfg config.AnthropicConfig, logger *zap.Logger) *AnthropicConnector {
	connector := pkghttp.NewConnector(
		&pkghttp.ConnectorConfig{
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		},
		pkghttp.WithRequestTimeout(cfg.RequestTimeout),
		pkghttp.WithConnClientTimeout(cfg.ConnTimeout),
		pkghttp.WithClientKeepAlive(cfg.KeepAlive),
		pkghttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkghttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkghttp.WithRequestLogging(),
		pkghttp.WithStaticHeaders(map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": anthropicVersion,
		}),
	)

	return &AnthropicConnector{
		config:    cfg,
		connector: connector,
		logger:    logger,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// Complete sends one completion request and returns the reply text.
func (c *AnthropicConnector) Complete(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	ctxzap.Debug(ctx, "requesting completion",
		zap.String("model", c.model(req)),
		zap.Int("turns", len(req.Turns)),
	)

	var resp messagesResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, messagesEndpoint, c.buildRequest(req, false), &resp); err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in completion response")
}

// CompleteStream sends a streaming completion request and invokes onChunk
// for every text delta, in order, until the provider signals completion.
func (c *AnthropicConnector) CompleteStream(ctx context.Context, req *entity.CompletionRequest, onChunk func(string) error) error {
	ctxzap.Debug(ctx, "requesting streaming completion",
		zap.String("model", c.model(req)),
		zap.Int("turns", len(req.Turns)),
	)

	return c.connector.DoStreamRequest(ctx, http.MethodPost, messagesEndpoint, c.buildRequest(req, true), func(r io.Reader) error {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, sseDataPrefix) {
				continue
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, sseDataPrefix)), &event); err != nil {
				return fmt.Errorf("decode stream event: %w", err)
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Type == "text_delta" {
					if err := onChunk(event.Delta.Text); err != nil {
						return err
					}
				}
			case "message_stop":
				return nil
			}
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		return nil
	})
}

func (c *AnthropicConnector) buildRequest(req *entity.CompletionRequest, stream bool) *messagesRequest {
	messages := make([]anthropicMessage, 0, len(req.Turns))
	for _, turn := range req.Turns {
		messages = append(messages, anthropicMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	return &messagesRequest{
		Model:     c.model(req),
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  messages,
		Stream:    stream,
	}
}

func (c *AnthropicConnector) model(req *entity.CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.config.Model
}
