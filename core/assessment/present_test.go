package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleQuiz() QuizDetail {
	return QuizDetail{
		Quiz: Quiz{ID: "quiz", LessonID: "lesson", Title: "Basics"},
		Questions: []Question{
			{ID: "q1", Text: "One", Type: SingleChoice, Choices: []Choice{
				{ID: "c1", Text: "a", IsCorrect: true},
				{ID: "c2", Text: "b"},
			}},
			{ID: "q2", Text: "Two", Type: MultipleChoice, Choices: []Choice{
				{ID: "c3", Text: "c", IsCorrect: true},
				{ID: "c4", Text: "d", IsCorrect: true},
				{ID: "c5", Text: "e"},
			}},
		},
	}
}

func TestPresent(t *testing.T) {
	origShuffle := shuffleFunc
	defer func() { shuffleFunc = origShuffle }()

	tests := []struct {
		name          string
		shuffle       func(n int, swap func(i, j int))
		wantQuestions []string
		wantChoices   map[string][]string
	}{
		{
			name:          "no shuffle keeps stored order",
			shuffle:       func(int, func(i, j int)) {},
			wantQuestions: []string{"q1", "q2"},
			wantChoices:   map[string][]string{"q1": {"c1", "c2"}, "q2": {"c3", "c4", "c5"}},
		},
		{
			name: "reverse shuffle",
			shuffle: func(n int, swap func(i, j int)) {
				for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
					swap(i, j)
				}
			},
			wantQuestions: []string{"q2", "q1"},
			wantChoices:   map[string][]string{"q1": {"c2", "c1"}, "q2": {"c5", "c4", "c3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shuffleFunc = tt.shuffle
			view := Present(sampleQuiz())

			assert.Equal(t, "quiz", view.ID)
			assert.Equal(t, "Basics", view.Title)
			var gotQuestions []string
			for _, q := range view.Questions {
				gotQuestions = append(gotQuestions, q.ID)
				var gotChoices []string
				for _, c := range q.Choices {
					gotChoices = append(gotChoices, c.ID)
				}
				assert.Equal(t, tt.wantChoices[q.ID], gotChoices)
			}
			assert.Equal(t, tt.wantQuestions, gotQuestions)
		})
	}
}

func TestPresent_KeepsEveryChoice(t *testing.T) {
	detail := sampleQuiz()
	for i := 0; i < 20; i++ {
		view := Present(detail)
		assert.Len(t, view.Questions, 2)
		for _, q := range view.Questions {
			ids := make([]string, 0, len(q.Choices))
			for _, c := range q.Choices {
				ids = append(ids, c.ID)
			}
			if q.ID == "q1" {
				assert.ElementsMatch(t, []string{"c1", "c2"}, ids)
			} else {
				assert.ElementsMatch(t, []string{"c3", "c4", "c5"}, ids)
			}
		}
	}
	// the stored detail is left untouched
	assert.Equal(t, "q1", detail.Questions[0].ID)
	assert.Equal(t, "c1", detail.Questions[0].Choices[0].ID)
}
