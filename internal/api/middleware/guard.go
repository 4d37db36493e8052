package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/api/metrics"
	"github.com/zentria/afe-api/internal/core/domain"
)

// Guard enforces a per-route role allow-list on top of the session resolved
// by Auth. The decision itself is pure (domain.Decide) and re-evaluated on
// every request, so it always reflects the current session.
//
// Navigations (GET/HEAD) are redirected to the decision's target: login for
// unauthenticated requests, the operational dashboard for authenticated but
// unauthorized ones. Mutating requests get 401/403 JSON instead, since a
// redirect on a POST would silently drop the body.
func Guard(allowedRoles ...string) echo.MiddlewareFunc {
	redirects := domain.DefaultGuardRedirects()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFromContext(c)
			decision := domain.Decide(sess, allowedRoles, redirects)
			if decision.Kind == domain.DecisionAllow {
				metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()
				return next(c)
			}

			outcome := "forbidden"
			status := http.StatusForbidden
			if decision.Target == redirects.Unauthenticated {
				outcome = "unauthenticated"
				status = http.StatusUnauthorized
			}
			metrics.GuardDecisionsTotal.WithLabelValues(outcome).Inc()

			switch c.Request().Method {
			case http.MethodGet, http.MethodHead:
				return c.Redirect(http.StatusFound, decision.Target)
			default:
				return c.JSON(status, map[string]string{
					"error":    outcome,
					"redirect": decision.Target,
				})
			}
		}
	}
}
