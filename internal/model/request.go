package model

import "strings"

// DocentMessage is one prior turn forwarded by the client. Clients may send
// either the upstream shape {role, content} or their own turn shape
// {question, answer}; Normalize folds both into a role/content pair.
type DocentMessage struct {
	Role     string `json:"role,omitempty"`
	Content  string `json:"content,omitempty"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// Normalize returns the upstream role and content of the message. Without an
// explicit role the message is a user turn when it carries a question.
func (m DocentMessage) Normalize() (role, content string) {
	role = strings.ToLower(strings.TrimSpace(m.Role))
	content = m.Content
	if role == "" {
		if m.Question != "" {
			role = RoleUser
		} else {
			role = RoleAssistant
		}
	}
	if content == "" {
		if m.Question != "" {
			content = m.Question
		} else {
			content = m.Answer
		}
	}
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		role = RoleUser
	}
	return role, content
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DocentRequest is the body accepted by the docent proxy.
type DocentRequest struct {
	Question     string          `json:"question"`
	ArtistName   string          `json:"artistName"`
	ArtworkTitle string          `json:"artworkTitle"`
	Messages     []DocentMessage `json:"messages,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SaveChatRecordRequest is what a client posts after a finished docent turn.
type SaveChatRecordRequest struct {
	ImageURL string   `json:"imageUrl"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Question string   `json:"question" binding:"required"`
	Answer   string   `json:"answer" binding:"required"`
	Examples []string `json:"examples"`
	ImageID  string   `json:"imageID,omitempty"`
}

// UpdateArtworkRequest carries the editable artwork fields; nil means unchanged.
type UpdateArtworkRequest struct {
	Title    *string `json:"title"`
	Artist   *string `json:"artist"`
	Year     *string `json:"year"`
	Location *string `json:"location"`
	Category *string `json:"category"`
	YouTube  *string `json:"youtube"`
}
