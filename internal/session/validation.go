package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) validateLogin() error {
	return apperrors.FromValidation(validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	))
}

// validateRegister mirrors the backend's user constraints.
func (c credentials) validateRegister() error {
	return apperrors.FromValidation(validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required, validation.RuneLength(3, 50)),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required, validation.RuneLength(6, 0)),
	))
}
