package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
)

type authApi struct {
	store    *session.Store
	gateway  *session.Gateway
	verifier *session.Verifier
	logger   core.Logger
}

func registerAuthAPI(e *echo.Echo, opts *Options) {
	api := authApi{
		store:    opts.Store,
		gateway:  opts.Gateway,
		verifier: opts.Verifier,
		logger:   opts.Logger,
	}

	g := e.Group("/auth")

	// page routes; signed-in users are bounced to the dashboard
	bounce := redirectAuthenticated(opts.Store)
	g.GET("/login", api.loginPage, bounce)
	g.GET("/signup", api.signupPage, bounce)

	g.POST("/login", api.login)
	g.POST("/signup", api.signup)
	g.POST("/logout", api.logout)
	g.POST("/password-reset", api.resetPassword)
	g.POST("/resend-verification", api.resendVerification)

	// the confirmation deep link lands here; it must stay reachable while a
	// session is being established, so no bounce
	g.GET("/verify-email", api.verifyEmail)

	g.GET("/session", api.sessionState)
}

// Handlers

func (api *authApi) loginPage(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Sign in to Virtual Campus")
}

func (api *authApi) signupPage(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Create your Virtual Campus account")
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.gateway.SignIn(ctx.Request().Context(), data.Email, data.Password); err != nil {
		return err
	}

	// only same-site targets; anything else goes to the dashboard
	redirect := ctx.QueryParam("redirect")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = dashboardPath
	}
	return ctx.JSON(http.StatusOK, echo.Map{"redirect": redirect})
}

func (api *authApi) signup(ctx echo.Context) error {
	var data session.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ident, err := api.gateway.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, SignUpResponse{
		Email:    ident.Email,
		Redirect: "/auth/verify-email",
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	if err := api.gateway.SignOut(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.gateway.ResetPassword(ctx.Request().Context(), data.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) resendVerification(ctx echo.Context) error {
	var data ResendVerificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResendVerificationRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	var err error
	if data.Email != "" {
		err = api.gateway.ResendVerification(ctx.Request().Context(), data.Email)
	} else {
		err = api.verifier.Resend(ctx.Request().Context())
	}
	if err != nil {
		if errors.Cause(err) == session.ErrNoPendingEmail {
			return core.NewValidationError(session.ErrNoPendingEmail)
		}
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "verification email sent"})
}

// verifyEmail serves the confirmation screen. When the request carries token
// material it is a confirmation deep link; otherwise the flow re-checks for a
// session confirmed elsewhere (another tab, a previous visit).
func (api *authApi) verifyEmail(ctx echo.Context) error {
	accessToken := ctx.QueryParam("access_token")
	refreshToken := ctx.QueryParam("refresh_token")
	typ := ctx.QueryParam("type")

	if accessToken != "" || refreshToken != "" || typ != "" {
		sess, err := api.verifier.HandleCallback(ctx.Request().Context(), accessToken, refreshToken, typ)
		if err != nil {
			return err
		}
		resp := VerifyStatusResponse{State: api.verifier.State(), Redirect: dashboardPath}
		if sess.Identity != nil {
			resp.Email = sess.Identity.Email
		}
		return ctx.JSON(http.StatusOK, resp)
	}

	state := api.verifier.CheckExisting(ctx.Request().Context())
	pending := api.verifier.Pending()
	resp := VerifyStatusResponse{
		State:    state,
		Email:    pending.Email,
		SignupOK: pending.SignupOK,
	}
	if state == session.StateConfirmed {
		resp.Redirect = dashboardPath
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) sessionState(ctx echo.Context) error {
	snap := api.store.Snapshot()
	resp := SessionStateResponse{
		Loading:       snap.Loading,
		Authenticated: snap.Authenticated(),
		Profile:       snap.Profile,
	}
	if snap.Session.Identity != nil {
		resp.Email = snap.Session.Identity.Email
	}
	return ctx.JSON(http.StatusOK, resp)
}
