package assessment

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
)

func newValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func TestNewQuestion_Validate(t *testing.T) {
	validate, translator := newValidator(t)

	tests := []struct {
		name     string
		question NewQuestion
		wantType string
		wantErrs map[string]string
	}{
		{
			name: "valid single choice, type defaulted",
			question: NewQuestion{
				Text:    " What is 2 + 2? ",
				Choices: []NewChoice{{Text: "4", IsCorrect: true}, {Text: "5"}},
			},
			wantType: SingleChoice,
		},
		{
			name: "valid multiple choice",
			question: NewQuestion{
				Text:    "Pick the primes",
				Type:    "Multiple_Choice",
				Choices: []NewChoice{{Text: "2", IsCorrect: true}, {Text: "3", IsCorrect: true}, {Text: "4"}},
			},
			wantType: MultipleChoice,
		},
		{
			name:     "missing text",
			question: NewQuestion{Choices: []NewChoice{{Text: "a", IsCorrect: true}, {Text: "b"}}},
			wantErrs: map[string]string{"text": "Please enter text."},
		},
		{
			name:     "not enough choices",
			question: NewQuestion{Text: "Q", Choices: []NewChoice{{Text: "a", IsCorrect: true}}},
			wantErrs: map[string]string{"choices": choicesMinText},
		},
		{
			name:     "no correct choice",
			question: NewQuestion{Text: "Q", Choices: []NewChoice{{Text: "a"}, {Text: "b"}}},
			wantErrs: map[string]string{"choices": choicesCorrectText},
		},
		{
			name: "single choice with two correct choices",
			question: NewQuestion{
				Text:    "Q",
				Type:    SingleChoice,
				Choices: []NewChoice{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}},
			},
			wantErrs: map[string]string{"choices": choicesSingleText},
		},
		{
			name: "unknown type",
			question: NewQuestion{
				Text:    "Q",
				Type:    "essay",
				Choices: []NewChoice{{Text: "a", IsCorrect: true}, {Text: "b"}},
			},
			wantErrs: map[string]string{"question_type": "question_type must be one of [single_choice multiple_choice]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.question
			err := q.Validate(validate, translator)
			if tt.wantErrs == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantType, q.Type)
				assert.NotContains(t, q.Text, "  ")
				return
			}

			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok, "expected *core.ValidationError, got %T: %v", err, err)
			got := make(map[string]string, len(vErr.Fields))
			for _, f := range vErr.Fields {
				got[f.Field] = f.Error
			}
			assert.Equal(t, tt.wantErrs, got)
		})
	}
}

func TestNewQuiz_Validate(t *testing.T) {
	validate, translator := newValidator(t)

	nq := NewQuiz{Title: "  Week 1  "}
	require.NoError(t, nq.Validate(validate, translator))
	assert.Equal(t, "Week 1", nq.Title)

	nq = NewQuiz{}
	err := nq.Validate(validate, translator)
	require.Error(t, err)
	assert.True(t, err.(*core.ValidationError).HasField("title"))
}
