package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core/forum"
)

type forumAPI struct {
	svc        forum.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerForumAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps Deps) {
	api := forumAPI{
		svc:        deps.ForumSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	g.GET("/lessons/:id/threads", api.listThreads, auth...)
	g.POST("/lessons/:id/threads", api.createThread, auth...)

	tg := g.Group("/threads", auth...)
	tg.GET("/:id", api.retrieveThread)
	tg.DELETE("/:id", api.destroyThread)
	tg.POST("/:id/comments", api.addComment)

	g.DELETE("/comments/:id", api.destroyComment, auth...)
}

func (api *forumAPI) listThreads(ctx echo.Context) error {
	filter := forum.ThreadFilter{
		LessonID:  ctx.Param("id"),
		CreatedBy: ctx.QueryParam("created_by"),
		Search:    ctx.QueryParam("q"),
	}
	filter.Clean()

	threads, err := api.svc.ListThreads(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing threads")
	}
	if threads == nil {
		threads = []forum.Thread{}
	}
	return ctx.JSON(http.StatusOK, threads)
}

func (api *forumAPI) createThread(ctx echo.Context) error {
	var data forum.NewThread
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewThread")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	t, err := api.svc.CreateThread(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating thread")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *forumAPI) retrieveThread(ctx echo.Context) error {
	t, err := api.svc.GetThread(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting thread")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *forumAPI) destroyThread(ctx echo.Context) error {
	if err := api.svc.DeleteThread(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting thread")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *forumAPI) addComment(ctx echo.Context) error {
	var data forum.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	c, err := api.svc.AddComment(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *forumAPI) destroyComment(ctx echo.Context) error {
	if err := api.svc.DeleteComment(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
