package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/pal/apps/api/echo"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/core/forum"
	"github.com/trezcool/pal/core/grading"
)

func TestAssessmentAPI(t *testing.T) {
	app := setup(t)
	tree := app.fx.CourseTree(t, "prof@pal.test", 1)
	student := app.fx.Student(t, "student@pal.test")
	ownerToken := app.token(t, tree.Instructor)
	studentToken := app.token(t, student)
	lessonPath := "/v1/lessons/" + tree.Lessons[0].ID

	rec := app.do(t, http.MethodPost, lessonPath+"/quiz", ownerToken, map[string]string{"title": "Checkpoint"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quiz assessment.Quiz
	decode(t, rec, &quiz)
	quizPath := "/v1/quizzes/" + quiz.ID

	app.run(t, []httpTest{
		{
			name:     "one quiz per lesson",
			method:   http.MethodPost,
			path:     lessonPath + "/quiz",
			token:    ownerToken,
			body:     map[string]string{"title": "Again"},
			wantCode: http.StatusConflict,
			wantData: httpErr{Error: "This lesson already has a quiz."},
		},
		{
			name:     "single choice needs exactly one correct choice",
			method:   http.MethodPost,
			path:     quizPath + "/questions",
			token:    ownerToken,
			body: map[string]interface{}{
				"text":          "Pick one",
				"question_type": assessment.SingleChoice,
				"choices":       []map[string]interface{}{{"text": "a", "is_correct": true}, {"text": "b", "is_correct": true}},
			},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{"choices": "A single choice question must have exactly one correct choice."},
		},
		{
			name:     "students cannot add questions",
			method:   http.MethodPost,
			path:     quizPath + "/questions",
			token:    studentToken,
			body: map[string]interface{}{
				"text":    "Pick one",
				"choices": []map[string]interface{}{{"text": "a", "is_correct": true}, {"text": "b"}},
			},
			wantCode: http.StatusForbidden,
			wantData: httpErr{Error: "You don't have permission to add questions to this quiz.", Redirect: "/v1/courses/" + tree.Course.ID},
		},
	})

	rec = app.do(t, http.MethodPost, quizPath+"/questions", ownerToken, map[string]interface{}{
		"text":          "Pick the primes",
		"question_type": assessment.MultipleChoice,
		"choices": []map[string]interface{}{
			{"text": "2", "is_correct": true},
			{"text": "3", "is_correct": true},
			{"text": "4"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var question assessment.Question
	decode(t, rec, &question)
	require.Len(t, question.Choices, 3)

	t.Run("correctness flags are only shown to the owner", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, quizPath, studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "is_correct")
		var view assessment.QuizView
		decode(t, rec, &view)
		require.Len(t, view.Questions, 1)
		assert.Len(t, view.Questions[0].Choices, 3)

		rec = app.do(t, http.MethodGet, lessonPath+"/quiz", ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "is_correct")
	})

	t.Run("only enrolled students submit", func(t *testing.T) {
		body := grading.SubmitAnswers{Answers: grading.Answers{question.ID: {question.Choices[0].ID}}}
		rec := app.do(t, http.MethodPost, quizPath+"/submit", studentToken, body)
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		rec = app.do(t, http.MethodPost, quizPath+"/submit", ownerToken, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		rec = app.do(t, http.MethodPost, "/v1/courses/"+tree.Course.ID+"/enroll", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("submit and resubmit", func(t *testing.T) {
		tests := []struct {
			name      string
			selected  []string
			wantScore float64
		}{
			{name: "partial answer", selected: []string{question.Choices[0].ID}, wantScore: 0},
			{name: "exact answer", selected: []string{question.Choices[1].ID, question.Choices[0].ID}, wantScore: 100},
		}
		for _, tt := range tests {
			rec := app.do(t, http.MethodPost, quizPath+"/submit", studentToken, grading.SubmitAnswers{
				Answers: grading.Answers{question.ID: tt.selected},
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res echoapi.SubmitResponse
			decode(t, rec, &res)
			assert.Equal(t, tt.wantScore, res.Result.Score, tt.name)
			assert.Equal(t, tt.wantScore, res.Submission.Score, tt.name)
		}

		rec := app.do(t, http.MethodGet, quizPath+"/submissions", ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var subs []grading.Submission
		decode(t, rec, &subs)
		require.Len(t, subs, 1)
		assert.Equal(t, float64(100), subs[0].Score)

		rec = app.do(t, http.MethodGet, quizPath+"/submissions", studentToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner removes a choice", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/v1/choices/"+question.Choices[2].ID, studentToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = app.do(t, http.MethodDelete, "/v1/choices/"+question.Choices[2].ID, ownerToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestEnrollmentAPI(t *testing.T) {
	app := setup(t)
	tree := app.fx.CourseTree(t, "prof@pal.test", 2)
	student := app.fx.Student(t, "student@pal.test")
	ownerToken := app.token(t, tree.Instructor)
	studentToken := app.token(t, student)
	coursePath := "/v1/courses/" + tree.Course.ID

	notEnrolled := httpErr{Error: enrollment.ErrNotEnrolled.Error()}
	app.run(t, []httpTest{
		{name: "instructors cannot enroll", method: http.MethodPost, path: coursePath + "/enroll", token: ownerToken, wantCode: http.StatusForbidden},
		{name: "drop before enrolling", method: http.MethodPost, path: coursePath + "/drop", token: studentToken, wantCode: http.StatusConflict, wantData: notEnrolled},
		{name: "progress needs an enrollment", method: http.MethodPost, path: "/v1/lessons/" + tree.Lessons[0].ID + "/start", token: studentToken, wantCode: http.StatusConflict, wantData: notEnrolled},
		{name: "enroll", method: http.MethodPost, path: coursePath + "/enroll", token: studentToken, wantCode: http.StatusOK},
		{name: "drop", method: http.MethodPost, path: coursePath + "/drop", token: studentToken, wantCode: http.StatusOK},
		{name: "drop twice", method: http.MethodPost, path: coursePath + "/drop", token: studentToken, wantCode: http.StatusConflict, wantData: notEnrolled},
		{name: "enroll again", method: http.MethodPost, path: coursePath + "/enroll", token: studentToken, wantCode: http.StatusOK},
	})

	var res echoapi.CompleteLessonResponse
	for _, l := range tree.Lessons {
		rec := app.do(t, http.MethodPost, "/v1/lessons/"+l.ID+"/complete", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &res)
		assert.True(t, res.Progress.IsCompleted())
	}
	assert.Equal(t, enrollment.StatusCompleted, res.Enrollment.Status)

	rec := app.do(t, http.MethodGet, "/v1/enrollments", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrs []enrollment.Enrollment
	decode(t, rec, &enrs)
	require.Len(t, enrs, 1)
	assert.Equal(t, enrollment.StatusCompleted, enrs[0].Status)

	rec = app.do(t, http.MethodGet, coursePath+"/enrollments", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &enrs)
	assert.Len(t, enrs, 1)
}

func TestForumAPI(t *testing.T) {
	app := setup(t)
	tree := app.fx.CourseTree(t, "prof@pal.test", 1)
	author := app.fx.Student(t, "author@pal.test")
	other := app.fx.Student(t, "other@pal.test")
	authorToken := app.token(t, author)
	otherToken := app.token(t, other)
	threadsPath := "/v1/lessons/" + tree.Lessons[0].ID + "/threads"

	rec := app.do(t, http.MethodPost, threadsPath, authorToken, map[string]string{"title": "Stuck on lesson A", "body": "Help!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var thread forum.ThreadDetail
	decode(t, rec, &thread)
	require.Len(t, thread.Comments, 1)
	threadPath := "/v1/threads/" + thread.ID

	app.run(t, []httpTest{
		{name: "empty comment", method: http.MethodPost, path: threadPath + "/comments", token: otherToken, body: map[string]string{"body": " "}, wantCode: http.StatusBadRequest, wantData: map[string]string{"body": "Please enter body."}},
		{name: "reply", method: http.MethodPost, path: threadPath + "/comments", token: otherToken, body: map[string]string{"body": "Me too"}, wantCode: http.StatusCreated},
		{
			name:     "other students cannot delete",
			method:   http.MethodDelete,
			path:     threadPath,
			token:    otherToken,
			wantCode: http.StatusForbidden,
			wantData: httpErr{Error: "You don't have permission to delete this thread.", Redirect: "/v1/courses/" + tree.Course.ID},
		},
	})

	rec = app.do(t, http.MethodGet, threadsPath, otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var threads []forum.Thread
	decode(t, rec, &threads)
	require.Len(t, threads, 1)

	rec = app.do(t, http.MethodGet, threadPath, otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &thread)
	require.Len(t, thread.Comments, 2)
	assert.ElementsMatch(t, []string{"Help!", "Me too"}, []string{thread.Comments[0].Body, thread.Comments[1].Body})

	rec = app.do(t, http.MethodDelete, threadPath, app.token(t, tree.Instructor), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
