package assessment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/testutil"
)

func intPtr(i int) *int { return &i }

func TestService_CreateQuiz(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Assessment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	lessonID := tree.Lessons[0].ID

	_, err := svc.CreateQuiz(ctx, fx.Student(t, "student@pal.test"), lessonID, assessment.NewQuiz{Title: "Quiz"})
	assert.IsType(t, &core.PermissionError{}, err)
	_, err = svc.CreateQuiz(ctx, fx.Instructor(t, "other@pal.test"), lessonID, assessment.NewQuiz{Title: "Quiz"})
	assert.IsType(t, &core.PermissionError{}, err)

	q, err := svc.CreateQuiz(ctx, tree.Instructor, lessonID, assessment.NewQuiz{Title: "Quiz"})
	require.NoError(t, err)
	assert.Equal(t, lessonID, q.LessonID)

	// one quiz per lesson
	_, err = svc.CreateQuiz(ctx, tree.Instructor, lessonID, assessment.NewQuiz{Title: "Again"})
	assert.Equal(t, assessment.ErrQuizExists, err)

	got, err := svc.GetQuizForLesson(ctx, lessonID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)

	_, err = svc.CreateQuiz(ctx, tree.Instructor, "unknown", assessment.NewQuiz{Title: "Quiz"})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Questions(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Assessment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	quiz := fx.Quiz(t, tree.Lessons[0], "Quiz")
	owner := tree.Instructor

	first, err := svc.CreateQuestion(ctx, owner, quiz.ID, assessment.NewQuestion{
		Text:    "2 + 2?",
		Type:    assessment.SingleChoice,
		Choices: []assessment.NewChoice{{Text: "4", IsCorrect: true}, {Text: "5"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, first.SortOrder)
	require.Len(t, first.Choices, 2)

	second, err := svc.CreateQuestion(ctx, owner, quiz.ID, assessment.NewQuestion{
		Text:    "Primes?",
		Type:    assessment.MultipleChoice,
		Choices: []assessment.NewChoice{{Text: "2", IsCorrect: true}, {Text: "3", IsCorrect: true}, {Text: "4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.SortOrder, "appended after the last question")

	// replace the choice set: keep "4" (now wrong), drop "5", add "22"
	updated, err := svc.UpdateQuestion(ctx, owner, first.ID, assessment.NewQuestion{
		Text:      "2 + 2 = ?",
		Type:      assessment.SingleChoice,
		SortOrder: intPtr(5),
		Choices: []assessment.NewChoice{
			{ID: first.Choices[0].ID, Text: "four"},
			{Text: "22", IsCorrect: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.SortOrder)
	require.Len(t, updated.Choices, 2)
	assert.Equal(t, first.Choices[0].ID, updated.Choices[0].ID)

	detail, err := svc.GetQuizDetail(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, detail.Questions, 2)
	assert.Equal(t, second.ID, detail.Questions[0].ID, "ordered by sort order")
	changed := detail.Questions[1]
	assert.Equal(t, "2 + 2 = ?", changed.Text)
	require.Len(t, changed.Choices, 2)
	assert.Equal(t, "four", changed.Choices[0].Text)
	assert.False(t, changed.Choices[0].IsCorrect)
	assert.Equal(t, "22", changed.Choices[1].Text)
	assert.True(t, changed.Choices[1].IsCorrect)

	view, err := svc.Present(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, view.Questions, 2)

	other := fx.Instructor(t, "other@pal.test")
	err = svc.DeleteChoice(ctx, other, changed.Choices[0].ID)
	assert.IsType(t, &core.PermissionError{}, err)
	assert.Equal(t, assessment.ErrLastChoice, svc.DeleteChoice(ctx, owner, changed.Choices[0].ID))

	require.NoError(t, svc.DeleteQuestion(ctx, owner, second.ID))
	detail, err = svc.GetQuizDetail(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Questions, 1)

	// deleting the quiz cascades to its questions
	require.NoError(t, svc.DeleteQuiz(ctx, owner, quiz.ID))
	_, err = svc.GetQuiz(ctx, quiz.ID)
	assert.Equal(t, assessment.ErrQuizNotFound, err)
	assert.Equal(t, assessment.ErrQuestionNotFound, svc.DeleteQuestion(ctx, owner, first.ID))
}

func TestService_DeleteChoice(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Assessment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	quiz := fx.Quiz(t, tree.Lessons[0], "Quiz")
	single := fx.Question(t, quiz, assessment.SingleChoice, 0, true, false, false)
	multi := fx.Question(t, quiz, assessment.MultipleChoice, 1, true, true, false, false)

	// cases run in order: each one sees the choices left by the previous ones
	tests := []struct {
		name     string
		choiceID string
		wantErr  error
	}{
		{name: "only correct choice of a single choice question", choiceID: single.Choices[0].ID, wantErr: assessment.ErrLastCorrect},
		{name: "wrong choice", choiceID: single.Choices[1].ID},
		{name: "down to one choice", choiceID: single.Choices[2].ID, wantErr: assessment.ErrLastChoice},
		{name: "one of two correct choices", choiceID: multi.Choices[0].ID},
		{name: "last correct choice", choiceID: multi.Choices[1].ID, wantErr: assessment.ErrLastCorrect},
		{name: "unknown choice", choiceID: "00000000-0000-0000-0000-000000000000", wantErr: assessment.ErrChoiceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, svc.DeleteChoice(ctx, tree.Instructor, tt.choiceID))
		})
	}

	detail, err := svc.GetQuizDetail(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, detail.Questions, 2)
	for _, q := range detail.Questions {
		assert.NotEmpty(t, q.CorrectChoiceIDs(), q.Type)
	}
	assert.Len(t, detail.Questions[0].Choices, 2)
	assert.Len(t, detail.Questions[1].Choices, 3)
}

func TestService_CreateQuestion_demotedOwner(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Assessment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	quiz := fx.Quiz(t, tree.Lessons[0], "Quiz")
	nq := assessment.NewQuestion{
		Text:    "2 + 2?",
		Type:    assessment.SingleChoice,
		Choices: []assessment.NewChoice{{Text: "4", IsCorrect: true}, {Text: "5"}},
	}

	demoted := tree.Instructor
	demoted.Role = account.RoleStudent
	_, err := svc.CreateQuestion(ctx, demoted, quiz.ID, nq)
	assert.IsType(t, &core.PermissionError{}, err)

	_, err = svc.CreateQuestion(ctx, tree.Instructor, quiz.ID, nq)
	assert.NoError(t, err)
}
