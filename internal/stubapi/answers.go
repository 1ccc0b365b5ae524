package stubapi

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_answers.yaml
var defaultAnswers []byte

// Answer is one canned reply, chosen when a question mentions any keyword.
type Answer struct {
	Keywords []string `yaml:"keywords"`
	Text     string   `yaml:"answer"`
	Page     int      `yaml:"page"`
}

// AnswerBook holds the stub's canned replies.
type AnswerBook struct {
	Answers  []Answer `yaml:"answers"`
	Fallback string   `yaml:"fallback"`
	General  string   `yaml:"general"`
}

// LoadAnswerBook reads answers from path, or the built-in set when path is empty.
func LoadAnswerBook(path string) (*AnswerBook, error) {
	data := defaultAnswers
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read answers file: %w", err)
		}
		data = b
	}
	return ParseAnswerBook(data)
}

// ParseAnswerBook decodes a YAML answer book.
func ParseAnswerBook(data []byte) (*AnswerBook, error) {
	var book AnswerBook
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("failed to parse answers: %w", err)
	}
	if book.Fallback == "" {
		book.Fallback = "I could not find that in the manual."
	}
	if book.General == "" {
		book.General = book.Fallback
	}
	return &book, nil
}

// Lookup picks the reply for question. With a manual the reply cites a page
// of it; without one the general reply is used when nothing matches.
func (b *AnswerBook) Lookup(question, manual string) (text, source string) {
	q := strings.ToLower(question)
	for _, a := range b.Answers {
		for _, kw := range a.Keywords {
			if kw == "" || !strings.Contains(q, strings.ToLower(kw)) {
				continue
			}
			if manual != "" && a.Page > 0 {
				source = fmt.Sprintf("%s, p.%d", manual, a.Page)
			}
			return a.Text, source
		}
	}
	if manual == "" {
		return b.General, ""
	}
	return b.Fallback, ""
}
