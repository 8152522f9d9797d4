package assessment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pal/core"
)

var (
	minChoices = 2

	choicesMinTag  = "choicesmin"
	choicesMinText = "Add at least 2 choices."

	choicesCorrectTag  = "choicescorrect"
	choicesCorrectText = "Mark at least one choice as correct."

	choicesSingleTag  = "choicessingle"
	choicesSingleText = "A single choice question must have exactly one correct choice."
)

// InitValidators registers the assessment validators and their translations.
// core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, choicesMinTag, choicesMinText)
	core.RegisterCustomTranslation(validate, translator, choicesCorrectTag, choicesCorrectText)
	core.RegisterCustomTranslation(validate, translator, choicesSingleTag, choicesSingleText)
}

// questionStructValidation checks the choice set of a question as a whole.
func questionStructValidation(sl validator.StructLevel) {
	nq, ok := sl.Current().Interface().(NewQuestion)
	if !ok {
		return
	}
	var correct int
	for _, c := range nq.Choices {
		if c.IsCorrect {
			correct++
		}
	}
	if tag := choiceSetTag(nq.Type, len(nq.Choices), correct); tag != "" {
		sl.ReportError(nq.Choices, "choices", "Choices", tag, "")
	}
}

// choiceSetTag returns the tag of the first rule a choice set breaks, or "" when it is valid.
func choiceSetTag(typ string, total, correct int) string {
	switch {
	case total < minChoices:
		return choicesMinTag
	case correct == 0:
		return choicesCorrectTag
	case typ == SingleChoice && correct > 1:
		return choicesSingleTag
	}
	return ""
}
