package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/virtualcampus/campus/core/session"
)

const (
	loginPath     = "/auth/login"
	dashboardPath = "/dashboard"
)

// requireAuth guards protected navigation. An unresolved or anonymous session is
// never allowed through (fail closed): the user is bounced to the login page
// with the original path preserved so login can return them there.
func requireAuth(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !store.WaitReady(ctx.Request().Context()) {
				return redirectToLogin(ctx)
			}
			if !store.Snapshot().Authenticated() {
				return redirectToLogin(ctx)
			}
			return next(ctx)
		}
	}
}

// redirectAuthenticated bounces already-signed-in users off the auth pages.
func redirectAuthenticated(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if store.WaitReady(ctx.Request().Context()) && store.Snapshot().Authenticated() {
				return ctx.Redirect(http.StatusFound, dashboardPath)
			}
			return next(ctx)
		}
	}
}

func redirectToLogin(ctx echo.Context) error {
	q := url.Values{"redirect": {ctx.Request().URL.Path}}
	return ctx.Redirect(http.StatusFound, loginPath+"?"+q.Encode())
}
