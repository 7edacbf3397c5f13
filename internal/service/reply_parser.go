package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/model"
	"artdocent-backend/pkg/logger"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrEmptyReply = errors.New("empty docent reply")

var questionTagPattern = regexp.MustCompile(`<\d+>`)

// ParseReply splits raw model output into the answer and the tagged follow-up
// questions. A reply without the delimiter is all answer.
func ParseReply(raw string) (model.DocentReply, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return model.DocentReply{}, ErrEmptyReply
	}

	parts := strings.Split(text, config.ReplyDelimiter)
	reply := model.DocentReply{
		Answer:           strings.TrimSpace(parts[0]),
		QuestionExamples: []string{},
	}
	if reply.Answer == "" {
		return model.DocentReply{}, ErrEmptyReply
	}
	if len(parts) > 1 {
		reply.QuestionExamples = splitQuestions(parts[1])
	}
	return reply, nil
}

func splitQuestions(block string) []string {
	questions := make([]string, 0, model.MaxQuestionExamples)
	for _, fragment := range questionTagPattern.Split(block, -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		questions = append(questions, fragment)
		if len(questions) == model.MaxQuestionExamples {
			break
		}
	}
	return questions
}

const structuredReplySchema = `{
  "type": "object",
  "required": ["answer", "questionExamples"],
  "properties": {
    "answer": {"type": "string", "minLength": 1},
    "questionExamples": {"type": "array", "items": {"type": "string"}}
  }
}`

var structuredSchema = mustCompileSchema(structuredReplySchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("docent_reply.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("docent_reply.json")
}

// ParseStructuredReply reads a JSON object reply. Output that is not a valid
// reply object goes through ParseReply instead.
func ParseStructuredReply(raw string) (model.DocentReply, error) {
	reply, err := decodeStructuredReply(raw)
	if err != nil {
		logger.Warnf("structured reply rejected, falling back to delimiter parsing: %v", err)
		return ParseReply(raw)
	}
	return reply, nil
}

func decodeStructuredReply(raw string) (model.DocentReply, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return model.DocentReply{}, fmt.Errorf("decode reply: %w", err)
	}
	if err := structuredSchema.Validate(doc); err != nil {
		return model.DocentReply{}, fmt.Errorf("validate reply: %w", err)
	}

	var decoded model.DocentReply
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return model.DocentReply{}, fmt.Errorf("decode reply: %w", err)
	}

	reply := model.DocentReply{
		Answer:           strings.TrimSpace(decoded.Answer),
		QuestionExamples: make([]string, 0, model.MaxQuestionExamples),
	}
	if reply.Answer == "" {
		return model.DocentReply{}, ErrEmptyReply
	}
	for _, q := range decoded.QuestionExamples {
		if q = strings.TrimSpace(q); q == "" {
			continue
		}
		reply.QuestionExamples = append(reply.QuestionExamples, q)
		if len(reply.QuestionExamples) == model.MaxQuestionExamples {
			break
		}
	}
	return reply, nil
}
