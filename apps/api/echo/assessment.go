package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/grading"
	"github.com/trezcool/pal/core/policy"
)

type assessmentAPI struct {
	svc        assessment.Service
	gradingSvc grading.Service
	validate   *validator.Validate
	translator ut.Translator
}

type SubmitResponse struct {
	Submission grading.Submission `json:"submission"`
	Result     grading.Result     `json:"result"`
}

func registerAssessmentAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps Deps) {
	api := assessmentAPI{
		svc:        deps.AssessmentSvc,
		gradingSvc: deps.GradingSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	g.POST("/lessons/:id/quiz", api.createQuiz, auth...)
	g.GET("/lessons/:id/quiz", api.retrieveLessonQuiz, auth...)

	qg := g.Group("/quizzes", auth...)
	qg.GET("/:id", api.retrieveQuiz)
	qg.PUT("/:id", api.updateQuiz)
	qg.DELETE("/:id", api.destroyQuiz)
	qg.POST("/:id/questions", api.createQuestion)
	qg.POST("/:id/submit", api.submit)
	qg.GET("/:id/submission", api.retrieveSubmission)
	qg.GET("/:id/submissions", api.listSubmissions)

	g.PUT("/questions/:id", api.updateQuestion, auth...)
	g.DELETE("/questions/:id", api.destroyQuestion, auth...)
	g.DELETE("/choices/:id", api.destroyChoice, auth...)
}

// Quizzes

func (api *assessmentAPI) createQuiz(ctx echo.Context) error {
	var data assessment.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	q, err := api.svc.CreateQuiz(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *assessmentAPI) retrieveLessonQuiz(ctx echo.Context) error {
	q, err := api.svc.GetQuizForLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson quiz")
	}
	return api.renderQuiz(ctx, q.ID)
}

func (api *assessmentAPI) retrieveQuiz(ctx echo.Context) error {
	return api.renderQuiz(ctx, ctx.Param("id"))
}

// renderQuiz serves the full quiz, correctness flags included, to those who may edit it.
// Everyone else gets the shuffled presentation.
func (api *assessmentAPI) renderQuiz(ctx echo.Context, quizID string) error {
	rctx := ctx.Request().Context()
	course, err := api.svc.GetCourseForQuiz(rctx, quizID)
	if err != nil {
		return errors.Wrap(err, "getting course for quiz")
	}

	if policy.CanModify(contextAccount(ctx), course) {
		detail, err := api.svc.GetQuizDetail(rctx, quizID)
		if err != nil {
			return errors.Wrap(err, "getting quiz detail")
		}
		return ctx.JSON(http.StatusOK, detail)
	}

	view, err := api.svc.Present(rctx, quizID)
	if err != nil {
		return errors.Wrap(err, "presenting quiz")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *assessmentAPI) updateQuiz(ctx echo.Context) error {
	var data assessment.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	q, err := api.svc.UpdateQuiz(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *assessmentAPI) destroyQuiz(ctx echo.Context) error {
	if err := api.svc.DeleteQuiz(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Questions & Choices

func (api *assessmentAPI) createQuestion(ctx echo.Context) error {
	var data assessment.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	q, err := api.svc.CreateQuestion(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *assessmentAPI) updateQuestion(ctx echo.Context) error {
	var data assessment.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	q, err := api.svc.UpdateQuestion(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *assessmentAPI) destroyQuestion(ctx echo.Context) error {
	if err := api.svc.DeleteQuestion(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assessmentAPI) destroyChoice(ctx echo.Context) error {
	if err := api.svc.DeleteChoice(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting choice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Submissions

func (api *assessmentAPI) submit(ctx echo.Context) error {
	var data grading.SubmitAnswers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAnswers")
	}

	sub, res, err := api.gradingSvc.Submit(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting answers")
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{Submission: sub, Result: res})
}

func (api *assessmentAPI) retrieveSubmission(ctx echo.Context) error {
	sub, err := api.gradingSvc.GetSubmission(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assessmentAPI) listSubmissions(ctx echo.Context) error {
	subs, err := api.gradingSvc.ListSubmissions(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []grading.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
