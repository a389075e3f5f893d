package dto

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// SessionView is what the UI knows about the current client.
type SessionView struct {
	Authenticated bool     `json:"authenticated"`
	UserID        int64    `json:"userId,omitempty"`
	Username      string   `json:"username,omitempty"`
	Email         string   `json:"email,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	IsAdmin       bool     `json:"isAdmin"`
	State         string   `json:"state"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Session  SessionView `json:"session"`
	Redirect string      `json:"redirect"`
}
