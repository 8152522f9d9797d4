package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
)

var (
	resetRequestedText = "If the email address supplied is associated with an account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."
	resetDoneText = "Password has been reset with the new password."
)

type accountAPI struct {
	conf       *core.Config
	logger     core.Logger
	svc        account.Service
	validate   *validator.Validate
	translator ut.Translator
}

// SignupResponse holds no token while the account awaits approval.
type SignupResponse struct {
	Account account.Account `json:"account"`
	Token   string          `json:"token,omitempty"`
}

func registerAccountAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps Deps) {
	api := accountAPI{
		conf:       deps.Conf,
		logger:     deps.Logger,
		svc:        deps.AccountSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/accounts")

	// un-authed endpoints
	// TODO: rate limit `/login`, `/password-reset` & `/password-reset-confirm`
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.requestPasswordReset)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.POST("/token-refresh", api.refreshToken, auth...)
	ag.GET("/me", api.me, auth...)
	ag.GET("", api.query, append(auth, adminMiddleware())...)
	ag.GET("/roles", api.queryRoles, append(auth, adminMiddleware())...)
	ag.POST("/approve", api.approve, append(auth, adminMiddleware())...)
	ag.DELETE("", api.destroyMultiple, append(auth, adminMiddleware())...)
	ag.GET("/:id", api.retrieve, auth...)
	ag.PUT("/:id", api.update, auth...)
	ag.DELETE("/:id", api.destroy, auth...)
}

// Handlers

func (api *accountAPI) signup(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.translator, api.svc); err != nil {
		return err
	}

	acc, err := api.svc.Create(rctx, data)
	if err != nil {
		if errors.Cause(err) == account.ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "creating account")
	}

	res := SignupResponse{Account: acc}
	if acc.IsActive {
		if res.Token, err = GenerateToken(api.conf, NewClaims(api.conf, acc)); err != nil {
			return errors.Wrap(err, "generating token")
		}
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *accountAPI) login(ctx echo.Context) error {
	var data account.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acc, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	switch errors.Cause(err) {
	case nil:
	case account.ErrInvalidCredentials:
		return core.NewValidationError(err, core.FieldError{Field: "login", Error: err.Error()})
	case account.ErrAccountInactive:
		return errAccountInactive
	default:
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(api.conf, NewClaims(api.conf, acc))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *accountAPI) requestPasswordReset(ctx echo.Context) error {
	var data account.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == account.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: resetRequestedText})
}

func (api *accountAPI) confirmPasswordReset(ctx echo.Context) error {
	var data account.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: resetDoneText})
}

func (api *accountAPI) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *accountAPI) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextAccount(ctx))
}

func (api *accountAPI) query(ctx echo.Context) error {
	filter := &account.QueryFilter{
		Search:     ctx.QueryParam("search"),
		Roles:      ctx.QueryParams()["role"],
		IsApproved: queryBool(ctx, "is_approved"),
		IsActive:   queryBool(ctx, "is_active"),
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	accs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accs == nil {
		accs = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accs)
}

func (api *accountAPI) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, account.Roles)
}

func (api *accountAPI) approve(ctx echo.Context) error {
	var data IDsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IDsRequest")
	}
	n, err := api.svc.ApproveInstructors(ctx.Request().Context(), contextAccount(ctx), data.IDs...)
	if err != nil {
		return errors.Wrap(err, "approving instructors")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"approved": n})
}

func (api *accountAPI) retrieve(ctx echo.Context) error {
	actor := contextAccount(ctx)
	id := ctx.Param("id")
	if id != actor.ID && !actor.IsAdmin() {
		return account.ErrNotFound
	}
	acc, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding account by ID")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountAPI) update(ctx echo.Context) error {
	var data account.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	acc, err := api.svc.Update(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextAccount(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountAPI) destroyMultiple(ctx echo.Context) error {
	ids := ctx.QueryParams()["id"]
	if err := api.svc.Delete(ctx.Request().Context(), contextAccount(ctx), ids...); err != nil {
		return errors.Wrap(err, "deleting accounts")
	}
	return ctx.NoContent(http.StatusNoContent)
}
