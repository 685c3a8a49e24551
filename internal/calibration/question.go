package calibration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Question is one calibration prompt with its fixed choice set.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Prompt        string   `json:"question" yaml:"question"`
	Choices       []string `json:"options" yaml:"options"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
}

// QuestionBank holds an ordered question set.
type QuestionBank struct {
	Questions []Question `yaml:"questions"`
}

// LoadQuestionBank reads and parses a local questions.yaml file. It is the
// fallback question source for running against a backend with no test set.
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}

	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question YAML: %w", err)
	}

	return &bank, nil
}
