package model

import (
	"context"
	"fmt"
	"strings"

	"artdocent-backend/internal/config"
	"artdocent-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiChatModel struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float32
}

func createGeminiModel(ctx context.Context, cfg config.GeminiConfig, maxTokens int, temperature float32) (einoModel.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger.Infof("Using Gemini model: %s", cfg.Model)

	return &geminiChatModel{
		client:      client,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Close shuts down the underlying Gemini client.
func (m *geminiChatModel) Close() error {
	return m.client.Close()
}

func (m *geminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	options := einoModel.GetCommonOptions(&einoModel.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: &m.temperature,
	}, opts...)

	gm := m.client.GenerativeModel(*options.Model)
	if options.Temperature != nil {
		gm.SetTemperature(*options.Temperature)
	}
	if options.MaxTokens != nil {
		gm.SetMaxOutputTokens(int32(*options.MaxTokens))
	}
	if wantsJSONObject(opts...) {
		gm.ResponseMIMEType = "application/json"
	}

	system, history, last, err := splitGeminiConversation(messages)
	if err != nil {
		return nil, err
	}
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini send message: %w", err)
	}

	text := extractGeminiText(resp)
	if text == "" {
		return nil, fmt.Errorf("no response from Gemini")
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: text,
	}, nil
}

// Stream delivers the whole reply as a single chunk.
func (m *geminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *geminiChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// splitGeminiConversation separates system instructions, prior turns and the
// final user prompt. Gemini names the assistant role "model".
func splitGeminiConversation(messages []*schema.Message) (string, []*genai.Content, string, error) {
	var system []string
	var turns []*schema.Message
	for _, msg := range messages {
		if msg.Role == schema.System {
			system = append(system, msg.Content)
			continue
		}
		if msg.Content == "" {
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != schema.User {
		return "", nil, "", fmt.Errorf("gemini: conversation must end with a user message")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == schema.Assistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		// first candidate only, like the OpenAI path
		break
	}
	return text.String()
}
