// Package client talks to the docent proxy the way the gallery front end
// does: bounded history, a fixed apology on failure, and history persistence.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"artdocent-backend/pkg/logger"

	"github.com/tidwall/gjson"
)

const (
	// HistoryWindow is how many prior turns are forwarded with a question.
	HistoryWindow = 3

	FallbackAnswer = "I'm sorry, I couldn't retrieve the response."
	EmptyAnswer    = "I'm sorry, I couldn't retrieve a proper response."
	ThinkingAnswer = "생각중..."

	maxExamples = 3
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Reply struct {
	Answer           string
	QuestionExamples []string
	// OK is false when Answer is one of the fallback apologies.
	OK bool
}

// Record is a finished turn saved to the history page.
type Record struct {
	ImageURL string   `json:"imageUrl"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Examples []string `json:"examples"`
	ImageID  string   `json:"imageID,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	accessKey  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAccessKey sends the key the proxy expects in X-Docent-Key.
func WithAccessKey(key string) Option {
	return func(c *Client) { c.accessKey = key }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask never fails: transport and decode errors yield FallbackAnswer, and a
// reply without an answer yields EmptyAnswer.
func (c *Client) Ask(ctx context.Context, question, artist, title string, history []Message) Reply {
	body, err := json.Marshal(map[string]interface{}{
		"question":     question,
		"artistName":   artist,
		"artworkTitle": title,
		"messages":     history,
	})
	if err != nil {
		return fallbackReply(err)
	}

	raw, _, err := c.post(ctx, "/api/chatGPT", body)
	if err != nil {
		return fallbackReply(err)
	}
	if !gjson.ValidBytes(raw) {
		return fallbackReply(fmt.Errorf("invalid JSON reply"))
	}

	parsed := gjson.ParseBytes(raw)
	reply := Reply{
		Answer:           parsed.Get("answer").String(),
		QuestionExamples: []string{},
	}
	if reply.Answer == "" {
		reply.Answer = EmptyAnswer
		return reply
	}
	reply.OK = true
	parsed.Get("questionExamples").ForEach(func(_, value gjson.Result) bool {
		if q := strings.TrimSpace(value.String()); q != "" {
			reply.QuestionExamples = append(reply.QuestionExamples, q)
		}
		return len(reply.QuestionExamples) < maxExamples
	})
	return reply
}

// SaveRecord posts a finished turn to the history store.
func (c *Client) SaveRecord(ctx context.Context, record Record) error {
	if len(record.Examples) > maxExamples {
		record.Examples = record.Examples[:maxExamples]
	}
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	raw, status, err := c.post(ctx, "/api/history", body)
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("save record: status %d: %s", status, gjson.GetBytes(raw, "error").String())
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessKey != "" {
		req.Header.Set("X-Docent-Key", c.accessKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

func fallbackReply(err error) Reply {
	logger.Errorf("Error fetching docent response: %v", err)
	return Reply{Answer: FallbackAnswer, QuestionExamples: []string{}}
}
