package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

// SessionKey is the echo context key the resolved session is stored under.
const SessionKey = "session"

// Auth resolves the request's session and injects it into context. It never
// rejects by itself; an absent, malformed, or revoked token simply yields the
// anonymous session and the route guard decides downstream.
//
// The session store is re-read on every request: a token that validates
// cryptographically but no longer matches the persisted session (logout,
// re-login elsewhere) counts as unauthenticated.
func Auth(jwtSecret string, sessions ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(SessionKey, resolveSession(c, jwtSecret, sessions))
			return next(c)
		}
	}
}

func resolveSession(c echo.Context, jwtSecret string, sessions ports.SessionStore) domain.Session {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return domain.AnonymousSession()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return domain.AnonymousSession()
	}
	raw := parts[1]

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return domain.AnonymousSession()
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return domain.AnonymousSession()
	}

	sess, err := sessions.Load(c.Request().Context(), userID)
	if err != nil {
		return domain.AnonymousSession()
	}
	if sess.Token != raw {
		return domain.AnonymousSession()
	}
	return sess
}

// SessionFromContext extracts the session injected by Auth. Returns the
// anonymous session when the middleware did not run.
func SessionFromContext(c echo.Context) domain.Session {
	if sess, ok := c.Get(SessionKey).(domain.Session); ok {
		return sess
	}
	return domain.AnonymousSession()
}
