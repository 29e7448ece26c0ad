package bank

import (
	"context"
	"fmt"
	"os"

	"exam-quiz-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Loader fetches the raw question list from a backing store (file, database).
type Loader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

type bankFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// FileLoader reads questions from a YAML (or JSON) file.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return LoadFile(l.path)
}

// LoadFile reads a question file. The document is either a list of questions or a mapping
// with a top-level "questions" key.
func LoadFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes question bank bytes.
func Parse(data []byte) ([]domain.Question, error) {
	var wrapped bankFile
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Questions) > 0 {
		return wrapped.Questions, nil
	}
	var list []domain.Question
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return list, nil
}

// Load builds a bank from any loader.
func Load(ctx context.Context, loader Loader) (*Bank, error) {
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return New(questions, nil)
}
