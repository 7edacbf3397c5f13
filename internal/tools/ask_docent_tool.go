package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"artdocent-backend/internal/model"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

type DocentAsker interface {
	GetDocentReply(ctx context.Context, req *model.DocentRequest) (model.DocentReply, error)
}

// AskDocentTool implements tool.InvokableTool over a single docent question.
type AskDocentTool struct {
	Docent DocentAsker
}

func (t *AskDocentTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "ask_docent",
		Desc: "Ask the exhibition docent about an artwork. Returns a Korean explanation and up to three follow-up questions.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"question": {
				Type:     schema.String,
				Desc:     "The visitor's question",
				Required: true,
			},
			"artist_name": {
				Type:     schema.String,
				Desc:     "Artist of the artwork",
				Required: true,
			},
			"artwork_title": {
				Type:     schema.String,
				Desc:     "Title of the artwork",
				Required: true,
			},
		}),
	}, nil
}

func (t *AskDocentTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var params struct {
		Question     string `json:"question"`
		ArtistName   string `json:"artist_name"`
		ArtworkTitle string `json:"artwork_title"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	reply, err := t.Docent.GetDocentReply(ctx, &model.DocentRequest{
		Question:     params.Question,
		ArtistName:   params.ArtistName,
		ArtworkTitle: params.ArtworkTitle,
	})
	if err != nil {
		return "", err
	}

	resultBytes, err := json.Marshal(reply)
	if err != nil {
		return "", err
	}
	return string(resultBytes), nil
}
