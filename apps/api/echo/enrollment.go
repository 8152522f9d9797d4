package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core/enrollment"
)

type enrollmentAPI struct {
	svc enrollment.Service
}

type CompleteLessonResponse struct {
	Progress   enrollment.Progress   `json:"progress"`
	Enrollment enrollment.Enrollment `json:"enrollment"`
}

func registerEnrollmentAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps Deps) {
	api := enrollmentAPI{svc: deps.EnrollmentSvc}

	g.GET("/enrollments", api.listOwn, auth...)
	g.POST("/courses/:id/enroll", api.enroll, auth...)
	g.POST("/courses/:id/drop", api.drop, auth...)
	g.GET("/courses/:id/enrollments", api.listCourseEnrollments, auth...)
	g.POST("/lessons/:id/start", api.startLesson, auth...)
	g.POST("/lessons/:id/complete", api.completeLesson, auth...)
}

func (api *enrollmentAPI) listOwn(ctx echo.Context) error {
	enrs, err := api.svc.ListEnrollments(ctx.Request().Context(), contextAccount(ctx))
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentAPI) enroll(ctx echo.Context) error {
	enr, err := api.svc.Enroll(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentAPI) drop(ctx echo.Context) error {
	enr, err := api.svc.Drop(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "dropping course")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentAPI) listCourseEnrollments(ctx echo.Context) error {
	enrs, err := api.svc.ListCourseEnrollments(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing course enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentAPI) startLesson(ctx echo.Context) error {
	prog, err := api.svc.StartLesson(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "starting lesson")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *enrollmentAPI) completeLesson(ctx echo.Context) error {
	prog, enr, err := api.svc.CompleteLesson(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, CompleteLessonResponse{Progress: prog, Enrollment: enr})
}
