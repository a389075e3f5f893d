package dto

import "github.com/reelhouse/movie-catalog/internal/service"

// DraftFieldsRequest sets primary fields of a draft. Keys are the form field names.
type DraftFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// CreditRequest adds an existing person to a draft.
type CreditRequest struct {
	PersonID      int64  `json:"personId"`
	PersonName    string `json:"personName"`
	RoleID        int64  `json:"roleId"`
	CharacterName string `json:"characterName"`
}

// InlinePersonRequest creates a person and selects it on the draft.
type InlinePersonRequest struct {
	PersonRequest
	RoleID        int64  `json:"roleId"`
	CharacterName string `json:"characterName"`
}

// PersonRequest payload for person create/update.
type PersonRequest struct {
	Name       string  `json:"name"`
	BirthDate  *string `json:"birthDate"`
	Bio        *string `json:"bio"`
	ProfileURL *string `json:"profileUrl"`
}

// DraftView renders an add-movie form.
type DraftView struct {
	ID        string                   `json:"draftId"`
	Draft     service.MovieDraft       `json:"draft"`
	Pending   service.PendingOperation `json:"pending"`
	InFlight  bool                     `json:"inFlight"`
	CreatedID int64                    `json:"createdId,omitempty"`
	Status    string                   `json:"status"`
	Error     *ErrorView               `json:"error,omitempty"`
}

// ErrorView mirrors the error envelope body.
type ErrorView struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ReviewRequest payload for review create and PUT.
type ReviewRequest struct {
	MovieID    int64  `json:"movieId"`
	Rating     int64  `json:"rating"`
	ReviewText string `json:"reviewText"`
}

// ReviewPatchRequest payload for PATCH; absent fields stay unchanged.
type ReviewPatchRequest struct {
	Rating     *int64  `json:"rating"`
	ReviewText *string `json:"reviewText"`
}
