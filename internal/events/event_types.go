package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionChanged        EventType = "session_changed"
	EventMovieCreated          EventType = "movie_created"
	EventMoviePartiallyCreated EventType = "movie_partially_created"
	EventMovieDeleted          EventType = "movie_deleted"
	EventPersonCreated         EventType = "person_created"
	EventReviewPosted          EventType = "review_posted"
)

// SessionTransition names the transition behind an EventSessionChanged.
type SessionTransition string

const (
	TransitionLogin       SessionTransition = "login"
	TransitionRegister    SessionTransition = "register"
	TransitionLogout      SessionTransition = "logout"
	TransitionInvalidated SessionTransition = "invalidated"
	TransitionRestored    SessionTransition = "restored"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionChangedPayload payload.
type SessionChangedPayload struct {
	Transition    SessionTransition `json:"transition"`
	Authenticated bool              `json:"authenticated"`
	Roles         []string          `json:"roles,omitempty"`
}

// MovieCreatedPayload payload.
type MovieCreatedPayload struct {
	MovieID int64  `json:"movie_id"`
	Title   string `json:"title"`
	Genres  int    `json:"genres"`
	Credits int    `json:"credits"`
}

// MoviePartiallyCreatedPayload payload.
type MoviePartiallyCreatedPayload struct {
	MovieID int64  `json:"movie_id"`
	Title   string `json:"title"`
	Step    string `json:"step"`
	Error   string `json:"error"`
}

// MovieDeletedPayload payload.
type MovieDeletedPayload struct {
	MovieID int64 `json:"movie_id"`
}

// PersonCreatedPayload payload.
type PersonCreatedPayload struct {
	PersonID int64  `json:"person_id"`
	Name     string `json:"name"`
}

// ReviewPostedPayload payload.
type ReviewPostedPayload struct {
	ReviewID int64 `json:"review_id"`
	MovieID  int64 `json:"movie_id"`
	Rating   int64 `json:"rating"`
}
