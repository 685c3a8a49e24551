package calibration

import (
	"time"

	"github.com/google/uuid"
)

// AnswerRecord captures one decided answer together with the timing data
// the confusion model trains against.
type AnswerRecord struct {
	ID             string
	QuestionID     string
	Question       string
	Difficulty     string
	SelectedAnswer string
	CorrectAnswer  string
	IsCorrect      bool
	DecidedAt      time.Time
	// TimeSpent is the elapsed time since the question became visible.
	TimeSpent time.Duration
}

// NewAnswerRecord builds a record for q answered with selected. Correctness
// is derived by equality with the question's correct choice.
func NewAnswerRecord(q Question, selected string, shownAt time.Time) AnswerRecord {
	now := time.Now()
	return AnswerRecord{
		ID:             uuid.NewString(),
		QuestionID:     q.ID,
		Question:       q.Prompt,
		Difficulty:     q.Difficulty,
		SelectedAnswer: selected,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      selected == q.CorrectAnswer,
		DecidedAt:      now,
		TimeSpent:      now.Sub(shownAt),
	}
}
