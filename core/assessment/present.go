package assessment

import "math/rand"

var shuffleFunc = rand.Shuffle // mockable

type (
	// QuizView is what a student sees before answering: no correctness flags.
	QuizView struct {
		ID        string         `json:"id"`
		LessonID  string         `json:"lesson_id"`
		Title     string         `json:"title"`
		Questions []QuestionView `json:"questions"`
	}

	QuestionView struct {
		ID      string       `json:"id"`
		Text    string       `json:"text"`
		Type    string       `json:"question_type"`
		Choices []ChoiceView `json:"choices"`
	}

	ChoiceView struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
)

// Present builds the ungraded view of a quiz.
// Question order and each question's choice order are shuffled independently on every call.
func Present(detail QuizDetail) QuizView {
	view := QuizView{
		ID:        detail.ID,
		LessonID:  detail.LessonID,
		Title:     detail.Title,
		Questions: make([]QuestionView, 0, len(detail.Questions)),
	}
	for _, q := range detail.Questions {
		qv := QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Choices: make([]ChoiceView, 0, len(q.Choices)),
		}
		for _, c := range q.Choices {
			qv.Choices = append(qv.Choices, ChoiceView{ID: c.ID, Text: c.Text})
		}
		shuffleFunc(len(qv.Choices), func(i, j int) { qv.Choices[i], qv.Choices[j] = qv.Choices[j], qv.Choices[i] })
		view.Questions = append(view.Questions, qv)
	}
	shuffleFunc(len(view.Questions), func(i, j int) {
		view.Questions[i], view.Questions[j] = view.Questions[j], view.Questions[i]
	})
	return view
}
