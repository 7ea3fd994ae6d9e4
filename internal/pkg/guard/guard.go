package guard

import "gymgate/internal/core/domain"

// State is the observable state of a session check
type State int

const (
	// Loading means the session check is still in flight
	Loading State = iota
	// Unauthenticated means no valid session exists
	Unauthenticated
	// Authenticated means a session with a role and optional scope exists
	Authenticated
)

// Session is the already-validated session state the guard consults. The
// guard never fetches anything itself.
type Session struct {
	State    State
	Role     domain.Role
	BranchID string
}

// Outcome is what the caller should do with the request
type Outcome int

const (
	// Allow grants access
	Allow Outcome = iota
	// Placeholder renders a neutral placeholder while the check is in flight
	Placeholder
	// RedirectLogin sends the caller to the login entry point
	RedirectLogin
	// RedirectUnauthorized sends the caller to the unauthorized destination
	RedirectUnauthorized
)

// Decision carries the outcome plus the originally requested destination so
// login can redirect back after success.
type Decision struct {
	Outcome Outcome
	Next    string
}

// Decide gates access to a destination. An empty allowedRoles set means any
// authenticated identity may pass. Loading never leaks protected content and
// never redirects.
func Decide(s Session, destination string, allowedRoles ...domain.Role) Decision {
	switch s.State {
	case Loading:
		return Decision{Outcome: Placeholder}
	case Unauthenticated:
		return Decision{Outcome: RedirectLogin, Next: destination}
	}

	if len(allowedRoles) == 0 {
		return Decision{Outcome: Allow}
	}
	for _, role := range allowedRoles {
		if s.Role == role {
			return Decision{Outcome: Allow}
		}
	}
	return Decision{Outcome: RedirectUnauthorized}
}
