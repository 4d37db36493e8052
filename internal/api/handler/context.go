package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/api/middleware"
	"github.com/zentria/afe-api/internal/core/domain"
)

// ctxSession extracts the session resolved by the Auth middleware and
// fast-fails before any service call: behind a Guard the session is always
// valid, so an invalid one here means the middleware chain is miswired.
func ctxSession(c echo.Context) (domain.Session, error) {
	sess := middleware.SessionFromContext(c)
	if !sess.Valid() {
		return domain.AnonymousSession(), echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return sess, nil
}
