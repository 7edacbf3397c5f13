package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/model"
	"artdocent-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
)

var ErrEmptyQuestion = errors.New("question is required")

const docentUserPrompt = "작가: {artist_name}, 작품: {artwork_title}에 대한 전시해설을 부탁드립니다. {question}"

// DocentService relays one visitor question to the upstream model and
// normalizes the reply. It keeps no state between calls.
type DocentService struct {
	runnable   compose.Runnable[*model.DocentRequest, model.DocentReply]
	cfg        config.DocentConfig
	structured bool
}

func NewDocentService(ctx context.Context, chatModel einoModel.ChatModel, cfg config.DocentConfig) (*DocentService, error) {
	structured := cfg.OutputMode == "structured"

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = config.DefaultSystemPrompt
	}
	if structured {
		systemPrompt = cfg.StructuredPrompt
		if systemPrompt == "" {
			systemPrompt = config.DefaultStructuredPrompt
		}
	}

	runnable, err := composeDocentGraph(ctx, chatModel, systemPrompt, structured)
	if err != nil {
		return nil, fmt.Errorf("failed to compose docent graph: %w", err)
	}

	return &DocentService{
		runnable:   runnable,
		cfg:        cfg,
		structured: structured,
	}, nil
}

// GetDocentReply makes exactly one upstream call. Upstream errors are returned
// as is; the transport decides how to present them.
func (s *DocentService) GetDocentReply(ctx context.Context, req *model.DocentRequest) (model.DocentReply, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return model.DocentReply{}, ErrEmptyQuestion
	}

	opts := []einoModel.Option{
		einoModel.WithMaxTokens(s.cfg.MaxTokens),
		einoModel.WithTemperature(s.cfg.Temperature),
	}
	if s.structured {
		opts = append(opts, model.WithJSONObjectResponse())
	}

	start := time.Now()
	reply, err := s.runnable.Invoke(ctx, req, compose.WithChatModelOption(opts...))
	fields := logrus.Fields{
		"artist":   req.ArtistName,
		"artwork":  req.ArtworkTitle,
		"history":  len(req.Messages),
		"duration": time.Since(start).String(),
	}
	if err != nil {
		logger.WithFields(fields).Errorf("docent reply failed: %v", err)
		return model.DocentReply{}, err
	}

	fields["examples"] = len(reply.QuestionExamples)
	logger.WithFields(fields).Info("docent reply")
	return reply, nil
}

func newDocentPrompt() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage("{system_prompt}"),
		schema.MessagesPlaceholder("message_histories", true),
		schema.UserMessage(docentUserPrompt),
	)
}

// historyMessages converts client turns to upstream messages. The persona is
// owned by the proxy, so client system turns and empty turns are dropped.
func historyMessages(turns []model.DocentMessage) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		role, content := turn.Normalize()
		if strings.TrimSpace(content) == "" {
			continue
		}
		switch role {
		case model.RoleUser:
			history = append(history, schema.UserMessage(content))
		case model.RoleAssistant:
			history = append(history, schema.AssistantMessage(content, nil))
		}
	}
	return history
}

func composeDocentGraph(ctx context.Context, cm einoModel.ChatModel, systemPrompt string, structured bool) (compose.Runnable[*model.DocentRequest, model.DocentReply], error) {
	g := compose.NewGraph[*model.DocentRequest, model.DocentReply]()

	toMap := compose.InvokableLambda(func(ctx context.Context, req *model.DocentRequest) (map[string]any, error) {
		return map[string]any{
			"system_prompt":     systemPrompt,
			"message_histories": historyMessages(req.Messages),
			"artist_name":       req.ArtistName,
			"artwork_title":     req.ArtworkTitle,
			"question":          strings.TrimSpace(req.Question),
		}, nil
	})
	if err := g.AddLambdaNode("RequestToMap", toMap); err != nil {
		return nil, err
	}

	if err := g.AddChatTemplateNode("DocentTemplate", newDocentPrompt()); err != nil {
		return nil, err
	}

	if err := g.AddChatModelNode("DocentModel", cm); err != nil {
		return nil, err
	}

	parse := compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (model.DocentReply, error) {
		if msg == nil {
			return model.DocentReply{}, ErrEmptyReply
		}
		if structured {
			return ParseStructuredReply(msg.Content)
		}
		return ParseReply(msg.Content)
	})
	if err := g.AddLambdaNode("ParseReply", parse); err != nil {
		return nil, err
	}

	for _, edge := range [][2]string{
		{compose.START, "RequestToMap"},
		{"RequestToMap", "DocentTemplate"},
		{"DocentTemplate", "DocentModel"},
		{"DocentModel", "ParseReply"},
		{"ParseReply", compose.END},
	} {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, err
		}
	}

	return g.Compile(ctx)
}
