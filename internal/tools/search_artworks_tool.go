package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"artdocent-backend/internal/model"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const maxToolResults = 10

type ArtworkSearcher interface {
	SearchArtworks(ctx context.Context, term string) ([]model.Artwork, error)
}

// SearchArtworksTool implements tool.InvokableTool over the gallery search.
type SearchArtworksTool struct {
	Gallery ArtworkSearcher
}

type artworkSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Year     string `json:"year,omitempty"`
	Category string `json:"category"`
	ImageURL string `json:"imageUrl"`
}

func (t *SearchArtworksTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "search_artworks",
		Desc: "Search the gallery by artwork title or artist name.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Part of a title or artist name, case-insensitive",
				Required: true,
			},
		}),
	}, nil
}

func (t *SearchArtworksTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	found, err := t.Gallery.SearchArtworks(ctx, params.Query)
	if err != nil {
		return "", err
	}
	if len(found) > maxToolResults {
		found = found[:maxToolResults]
	}

	summaries := make([]artworkSummary, 0, len(found))
	for _, a := range found {
		summaries = append(summaries, artworkSummary{
			ID:       a.ID,
			Title:    a.Title,
			Artist:   a.Artist,
			Year:     a.Year,
			Category: a.Category,
			ImageURL: a.ImageURL,
		})
	}

	resultBytes, err := json.Marshal(map[string]interface{}{
		"count":    len(summaries),
		"artworks": summaries,
	})
	if err != nil {
		return "", err
	}
	return string(resultBytes), nil
}
