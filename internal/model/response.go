package model

// DocentReply is the normalized proxy answer. QuestionExamples is never nil
// and holds at most MaxQuestionExamples entries.
type DocentReply struct {
	Answer           string   `json:"answer"`
	QuestionExamples []string `json:"questionExamples"`
}

const MaxQuestionExamples = 3

type ErrorMessage struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type ArtworkPage struct {
	Items      []Artwork `json:"items"`
	Total      int       `json:"total"`
	NextOffset int       `json:"nextOffset"`
	End        bool      `json:"end"`
}

type HistoryPage struct {
	Items      []ChatRecord `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
	End        bool         `json:"end"`
}
