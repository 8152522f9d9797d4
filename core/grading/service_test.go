package grading_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/core/grading"
	"github.com/trezcool/pal/testutil"
)

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Grading

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	quiz := fx.Quiz(t, tree.Lessons[0], "Checkpoint")
	q1 := fx.Question(t, quiz, assessment.SingleChoice, 0, true, false)
	q2 := fx.Question(t, quiz, assessment.SingleChoice, 1, false, true)
	q3 := fx.Question(t, quiz, assessment.SingleChoice, 2, true, false, false)
	q4 := fx.Question(t, quiz, assessment.MultipleChoice, 3, true, true, false)
	student := fx.Student(t, "student@pal.test")
	fx.Enrollment(t, student, tree.Course, enrollment.StatusInProgress)

	// 3 single choice right, 1 multiple choice with an extra wrong selection
	answers := grading.Answers{
		q1.ID: {q1.Choices[0].ID},
		q2.ID: {q2.Choices[1].ID},
		q3.ID: {q3.Choices[0].ID},
		q4.ID: {q4.Choices[0].ID, q4.Choices[1].ID, q4.Choices[2].ID},
	}
	sub, res, err := svc.Submit(ctx, student, quiz.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Score)
	assert.Equal(t, 75.0, sub.Score)
	assert.False(t, res.PerQuestion[q4.ID])

	// resubmission overwrites the score on the same record
	answers[q4.ID] = []string{q4.Choices[0].ID, q4.Choices[1].ID}
	resub, res, err := svc.Submit(ctx, student, quiz.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, sub.ID, resub.ID)
	assert.Equal(t, 100.0, resub.Score)

	got, err := svc.GetSubmission(ctx, student, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Score)

	subs, err := svc.ListSubmissions(ctx, tree.Instructor, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = svc.ListSubmissions(ctx, student, quiz.ID)
	assert.IsType(t, &core.PermissionError{}, err)
}

func TestService_SubmitEmptyQuiz(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Grading

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	quiz := fx.Quiz(t, tree.Lessons[0], "Empty")
	student := fx.Student(t, "student@pal.test")
	fx.Enrollment(t, student, tree.Course, enrollment.StatusCompleted)

	sub, res, err := svc.Submit(ctx, student, quiz.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0.0, sub.Score)

	_, _, err = svc.Submit(ctx, student, "unknown", nil)
	assert.Equal(t, assessment.ErrQuizNotFound, err)

	_, err = svc.GetSubmission(ctx, fx.Student(t, "other@pal.test"), quiz.ID)
	assert.Equal(t, grading.ErrSubmissionNotFound, err)
}

func TestService_SubmitRequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svcs := testutil.NewServices(db)

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	quiz := fx.Quiz(t, tree.Lessons[0], "Checkpoint")
	q := fx.Question(t, quiz, assessment.SingleChoice, 0, true, false)
	answers := grading.Answers{q.ID: {q.Choices[0].ID}}

	dropped := fx.Student(t, "dropped@pal.test")
	fx.Enrollment(t, dropped, tree.Course, enrollment.StatusDropped)

	tests := []struct {
		name     string
		actor    account.Account
		wantErr  error
		wantPerm bool
	}{
		{name: "course instructor", actor: tree.Instructor, wantPerm: true},
		{name: "admin", actor: fx.Admin(t, "admin@pal.test"), wantPerm: true},
		{name: "never enrolled", actor: fx.Student(t, "stranger@pal.test"), wantErr: enrollment.ErrNotEnrolled},
		{name: "dropped", actor: dropped, wantErr: enrollment.ErrNotEnrolled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svcs.Grading.Submit(ctx, tt.actor, quiz.ID, answers)
			if tt.wantPerm {
				assert.IsType(t, &core.PermissionError{}, err)
			} else {
				assert.Equal(t, tt.wantErr, err)
			}
			_, err = svcs.Grading.GetSubmission(ctx, tt.actor, quiz.ID)
			assert.Equal(t, grading.ErrSubmissionNotFound, err, "nothing stored")
		})
	}
}
