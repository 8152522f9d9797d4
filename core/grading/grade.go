package grading

import (
	"math"

	"github.com/trezcool/pal/core/assessment"
)

// Answers maps a question ID to the IDs of the choices selected for it.
type Answers map[string][]string

type Result struct {
	Correct     int             `json:"correct"`
	Total       int             `json:"total"`
	Score       float64         `json:"score"`
	PerQuestion map[string]bool `json:"per_question"`
}

// Grade scores answers against the questions of a quiz.
// A single choice question is correct when exactly one distinct choice is selected and it is correct;
// a multiple choice question is correct when the selected set equals the correct set.
// Unanswered questions count as wrong.
func Grade(questions []assessment.Question, answers Answers) Result {
	res := Result{
		Total:       len(questions),
		PerQuestion: make(map[string]bool, len(questions)),
	}
	for _, q := range questions {
		ok := isCorrect(q, distinct(answers[q.ID]))
		res.PerQuestion[q.ID] = ok
		if ok {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Score = round2(100 * float64(res.Correct) / float64(res.Total))
	}
	return res
}

func isCorrect(q assessment.Question, selected map[string]struct{}) bool {
	correct := q.CorrectChoiceIDs()
	if q.Type == assessment.SingleChoice {
		if len(selected) != 1 {
			return false
		}
		for id := range selected {
			_, ok := correct[id]
			return ok
		}
	}

	if len(selected) != len(correct) {
		return false
	}
	for id := range selected {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}

func distinct(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
