package session

import (
	"strings"

	"social-explore-client/internal/validation"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// Registration is the input of the sign-up form
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// registrationInput is the trimmed form as it is checked. Field order is the
// order in which failures are reported.
type registrationInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Password        string `json:"password" validate:"min=6"`
}

var registrationMessages = validation.Messages{
	"confirm_password": "passwords do not match",
	"password":         "password must be at least 6 characters",
}

// Validate runs the form checks that happen before any request
func (r Registration) Validate() error {
	return validation.Struct(registrationInput{
		Name:            strings.TrimSpace(r.Name),
		Email:           strings.TrimSpace(r.Email),
		ConfirmPassword: r.ConfirmPassword,
		Password:        r.Password,
	}, registrationMessages)
}
