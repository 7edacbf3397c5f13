package client

import (
	"context"
	"sync"

	"artdocent-backend/pkg/logger"
)

type TurnID uint64

// Turn is one question and its answer. Loading turns still show
// ThinkingAnswer.
type Turn struct {
	ID       TurnID
	Question string
	Answer   string
	Examples []string
	Loading  bool
}

// Artwork identifies what a conversation is about.
type Artwork struct {
	ID       string
	Title    string
	Artist   string
	ImageURL string
}

// ConversationSession holds the turns of one artwork conversation. Turns are
// addressed by ID, so replies may arrive in any order. Overlapping questions
// are accepted; Pending reports which are still in flight.
type ConversationSession struct {
	client  *Client
	artwork Artwork
	persist bool

	mu       sync.Mutex
	turns    []Turn
	nextID   TurnID
	examples []string
}

type SessionOption func(*ConversationSession)

// WithPersistence saves every resolved turn through Client.SaveRecord.
func WithPersistence() SessionOption {
	return func(s *ConversationSession) { s.persist = true }
}

func NewSession(c *Client, artwork Artwork, opts ...SessionOption) *ConversationSession {
	s := &ConversationSession{
		client:   c,
		artwork:  artwork,
		examples: []string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends an optimistic turn and returns its id together with the
// history to forward: the last HistoryWindow finished turns before it.
func (s *ConversationSession) Submit(question string) (TurnID, []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := windowHistory(s.turns)

	s.nextID++
	id := s.nextID
	s.turns = append(s.turns, Turn{
		ID:       id,
		Question: question,
		Answer:   ThinkingAnswer,
		Examples: []string{},
		Loading:  true,
	})
	return id, history
}

// Resolve fills in the answer of turn id. It reports false for an unknown or
// already resolved turn.
func (s *ConversationSession) Resolve(id TurnID, reply Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.turns {
		if s.turns[i].ID != id {
			continue
		}
		if !s.turns[i].Loading {
			return false
		}
		s.turns[i].Answer = reply.Answer
		s.turns[i].Examples = append([]string{}, reply.QuestionExamples...)
		s.turns[i].Loading = false
		s.examples = s.turns[i].Examples
		return true
	}
	return false
}

func (s *ConversationSession) Pending() []TurnID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []TurnID
	for _, t := range s.turns {
		if t.Loading {
			pending = append(pending, t.ID)
		}
	}
	return pending
}

func (s *ConversationSession) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Examples returns the follow-up suggestions of the latest resolved turn.
func (s *ConversationSession) Examples() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.examples...)
}

// Ask submits question, waits for the proxy and resolves the turn. With
// persistence on, a successfully answered turn is saved; a save failure is
// logged only.
func (s *ConversationSession) Ask(ctx context.Context, question string) Turn {
	id, history := s.Submit(question)
	reply := s.client.Ask(ctx, question, s.artwork.Artist, s.artwork.Title, history)
	s.Resolve(id, reply)

	if s.persist && reply.OK {
		err := s.client.SaveRecord(ctx, Record{
			ImageURL: s.artwork.ImageURL,
			Title:    s.artwork.Title,
			Artist:   s.artwork.Artist,
			Question: question,
			Answer:   reply.Answer,
			Examples: reply.QuestionExamples,
			ImageID:  s.artwork.ID,
		})
		if err != nil {
			logger.Errorf("Error saving chat history: %v", err)
		}
	}

	return Turn{
		ID:       id,
		Question: question,
		Answer:   reply.Answer,
		Examples: reply.QuestionExamples,
	}
}

// windowHistory maps the last HistoryWindow finished turns to messages, the
// question as a user message and the answer as an assistant message.
func windowHistory(turns []Turn) []Message {
	done := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if !t.Loading {
			done = append(done, t)
		}
	}
	if len(done) > HistoryWindow {
		done = done[len(done)-HistoryWindow:]
	}

	messages := make([]Message, 0, 2*len(done))
	for _, t := range done {
		if t.Question != "" {
			messages = append(messages, Message{Role: "user", Content: t.Question})
		}
		if t.Answer != "" {
			messages = append(messages, Message{Role: "assistant", Content: t.Answer})
		}
	}
	return messages
}
