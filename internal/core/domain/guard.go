package domain

// DecisionKind distinguishes guard outcomes.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
)

// Decision is the outcome of a route guard evaluation.
type Decision struct {
	Kind DecisionKind
	// Target is the redirect path; empty when Kind is DecisionAllow.
	Target string
}

// Allow is the decision that renders the guarded content.
var Allow = Decision{Kind: DecisionAllow}

// RedirectTo builds a redirect decision.
func RedirectTo(path string) Decision {
	return Decision{Kind: DecisionRedirect, Target: path}
}

// Default guard redirect targets.
const (
	LoginPath = "/login"
)

// GuardRedirects carries the two fallback targets of a route guard.
type GuardRedirects struct {
	Unauthenticated string
	Forbidden       string
}

// DefaultGuardRedirects returns the standard targets: unauthenticated users go
// to login, authenticated-but-unauthorized users to the operational dashboard.
func DefaultGuardRedirects() GuardRedirects {
	return GuardRedirects{Unauthenticated: LoginPath, Forbidden: OperationalLandingPath}
}

// Decide evaluates a route guard. Pure function: it must be re-evaluated on
// every navigation, since the session changes over its lifetime while the
// allow-list is static per route. Malformed sessions count as unauthenticated.
func Decide(session Session, allowedRoles []string, redirects GuardRedirects) Decision {
	if !session.Valid() {
		return RedirectTo(redirects.Unauthenticated)
	}
	for _, role := range allowedRoles {
		if session.Role == role {
			return Allow
		}
	}
	return RedirectTo(redirects.Forbidden)
}
