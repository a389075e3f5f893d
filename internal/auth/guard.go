package auth

import "github.com/reelhouse/movie-catalog/internal/domain"

// DecisionKind is the outcome of a guard evaluation.
type DecisionKind int

const (
	Allow DecisionKind = iota
	RedirectToLogin
	RedirectToHome
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	default:
		return "unknown"
	}
}

// Decision is a routing outcome. SavedDestination is set for RedirectToLogin.
type Decision struct {
	Kind             DecisionKind
	SavedDestination string
}

// Decide gates access to destination. It has no state and no side effects.
func Decide(caps domain.Capabilities, requireAdmin bool, destination string) Decision {
	if !caps.IsAuthenticated() {
		return Decision{Kind: RedirectToLogin, SavedDestination: destination}
	}
	if requireAdmin && !caps.IsAdmin() {
		return Decision{Kind: RedirectToHome}
	}
	return Decision{Kind: Allow}
}
