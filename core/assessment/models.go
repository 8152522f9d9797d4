package assessment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pal/core"
)

// Question types
const (
	SingleChoice   = "single_choice"
	MultipleChoice = "multiple_choice"
)

type Quiz struct {
	ID       string `json:"id"`
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
}

type Question struct {
	ID        string   `json:"id"`
	QuizID    string   `json:"quiz_id"`
	Text      string   `json:"text"`
	Type      string   `json:"question_type"`
	SortOrder int      `json:"sort_order"`
	Choices   []Choice `json:"choices"`
}

// CorrectChoiceIDs returns the set of choices flagged correct.
func (q Question) CorrectChoiceIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(q.Choices))
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

type Choice struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	SortOrder  int    `json:"sort_order"`
}

// QuizDetail is a quiz with its ordered questions and their choices, correctness included.
type QuizDetail struct {
	Quiz
	Questions []Question `json:"questions"`
}

type NewQuiz struct {
	Title string `json:"title" validate:"required,max=255"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate, translator ut.Translator) error {
	nq.Title = core.CleanString(nq.Title)
	return core.ValidateStruct(validate, translator, nq)
}

// NewQuestion creates or replaces a question along with its whole choice set.
// Choices carrying the ID of an existing choice update it; the others are created.
type NewQuestion struct {
	Text      string      `json:"text" validate:"required"`
	Type      string      `json:"question_type" validate:"omitempty,oneof=single_choice multiple_choice"`
	SortOrder *int        `json:"sort_order" validate:"omitempty,gte=0"`
	Choices   []NewChoice `json:"choices" validate:"dive"`
}

type NewChoice struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate, translator ut.Translator) error {
	nq.Text = core.CleanString(nq.Text)
	nq.Type = core.CleanString(nq.Type, true /* lower */)
	if nq.Type == "" {
		nq.Type = SingleChoice
	}
	for i := range nq.Choices {
		nq.Choices[i].ID = core.CleanString(nq.Choices[i].ID)
		nq.Choices[i].Text = core.CleanString(nq.Choices[i].Text)
	}
	return core.ValidateStruct(validate, translator, nq)
}
