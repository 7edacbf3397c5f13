package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/utils"
	"artdocent-backend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"
)

// NewChatModel creates the upstream chat model used by the docent.
func NewChatModel(ctx context.Context, cfg *config.Config) (einoModel.ChatModel, error) {
	maxTokens := cfg.Docent.MaxTokens
	temperature := cfg.Docent.Temperature

	switch cfg.Model.Provider {
	case "openai":
		return createOpenAIModel(cfg.OpenAI, maxTokens, temperature)
	case "doubao":
		return createDoubaoModel(ctx, cfg.Doubao, maxTokens, temperature)
	case "qwen":
		return createQwenModel(ctx, cfg.Qwen, maxTokens, temperature)
	case "gemini":
		return createGeminiModel(ctx, cfg.Gemini, maxTokens, temperature)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

// CloseChatModel releases the connections held by m. Models without
// resources to release are left alone.
func CloseChatModel(m einoModel.ChatModel) error {
	if c, ok := m.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// jsonObjectOption asks adapters that support it for a JSON object reply.
type jsonObjectOption struct {
	enabled bool
}

// WithJSONObjectResponse requests a structured JSON reply from providers that
// support a response format switch. Providers without one ignore it.
func WithJSONObjectResponse() einoModel.Option {
	return einoModel.WrapImplSpecificOptFn(func(o *jsonObjectOption) {
		o.enabled = true
	})
}

func wantsJSONObject(opts ...einoModel.Option) bool {
	return einoModel.GetImplSpecificOptions(&jsonObjectOption{}, opts...).enabled
}

func createOpenAIModel(cfg config.OpenAIConfig, maxTokens int, temperature float32) (einoModel.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is not configured")
	}
	logger.Infof("Using OpenAI model: %s", cfg.Model)
	return newOpenAIChatModel(cfg, maxTokens, temperature), nil
}

func createDoubaoModel(ctx context.Context, cfg config.DoubaoConfig, maxTokens int, temperature float32) (einoModel.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("doubao: api key is not configured")
	}
	logger.Infof("Using Doubao model: %s", cfg.Model)

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}
	return chatModel, nil
}

func createQwenModel(ctx context.Context, cfg config.QwenConfig, maxTokens int, temperature float32) (einoModel.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("qwen: api key is not configured")
	}
	logger.Infof("Using Qwen model: %s, BaseURL: %s", cfg.Model, cfg.BaseURL)

	httpClient := utils.NewHTTPClient(cfg.Timeout)
	httpClient.Transport = NewDebugTransport(httpClient.Transport, cfg.DebugRequest)

	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}
	return chatModel, nil
}

// DebugTransport logs outgoing upstream requests with credentials redacted.
type DebugTransport struct {
	base    http.RoundTripper
	enabled bool
}

func NewDebugTransport(base http.RoundTripper, enabled bool) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base, enabled: enabled}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.enabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.enabled {
		logger.Errorf("upstream request to %s failed: %v", req.URL.Host, err)
	}
	return resp, err
}

func (t *DebugTransport) logRequest(req *http.Request) {
	headers := make([]string, 0, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers = append(headers, name+": [REDACTED]")
			continue
		}
		headers = append(headers, name+": "+strings.Join(values, ", "))
	}

	var body string
	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			logger.Errorf("read upstream request body: %v", err)
			return
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		body = string(bodyBytes)
	}

	logger.WithFields(logrus.Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": headers,
		"size":    len(body),
	}).Debugf("upstream request body: %s", body)
}

func isSensitiveHeader(name string) bool {
	for _, sensitive := range []string{"authorization", "x-api-key", "x-auth-token", "cookie"} {
		if strings.EqualFold(name, sensitive) {
			return true
		}
	}
	return false
}
