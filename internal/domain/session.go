package domain

import "slices"

// Role names issued by the backend.
const (
	RoleUser        = "ROLE_USER"
	RoleAdmin       = "ROLE_ADMIN"
	RoleModerator   = "ROLE_MODERATOR"
	RolePremiumUser = "ROLE_PREMIUM_USER"
)

// Identity is the persisted user record of a session.
type Identity struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Session is the locally held record of an authenticated subject.
type Session struct {
	Identity
	Token string `json:"-"`
}

// Authenticated reports whether the session carries a credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Clone returns a deep copy so callers cannot alias manager state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Roles = slices.Clone(s.Roles)
	return &out
}

// Capabilities is a read-only projection of a session.
type Capabilities struct {
	authenticated bool
	subjectID     int64
	username      string
	roles         map[string]struct{}
}

// CapabilitiesOf derives the capability view of s. A nil session yields the anonymous view.
func CapabilitiesOf(s *Session) Capabilities {
	if !s.Authenticated() {
		return Capabilities{}
	}
	roles := make(map[string]struct{}, len(s.Roles))
	for _, r := range s.Roles {
		roles[r] = struct{}{}
	}
	return Capabilities{
		authenticated: true,
		subjectID:     s.ID,
		username:      s.Username,
		roles:         roles,
	}
}

func (c Capabilities) IsAuthenticated() bool { return c.authenticated }

func (c Capabilities) HasRole(role string) bool {
	if !c.authenticated {
		return false
	}
	_, ok := c.roles[role]
	return ok
}

func (c Capabilities) IsAdmin() bool { return c.HasRole(RoleAdmin) }

// SubjectID returns the authenticated user id, zero when anonymous.
func (c Capabilities) SubjectID() int64 { return c.subjectID }

func (c Capabilities) Username() string { return c.username }
