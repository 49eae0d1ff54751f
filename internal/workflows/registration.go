package workflows

import (
	"context"
	"sync"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/models"
	"social-explore-client/internal/session"
)

// Registrar creates an account and signs it in
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (*models.Session, error)
}

// RegistrationForm checks the sign-up fields locally before registering
type RegistrationForm struct {
	registrar Registrar

	mu     sync.Mutex
	errMsg string
}

func NewRegistrationForm(registrar Registrar) *RegistrationForm {
	return &RegistrationForm{registrar: registrar}
}

// Submit validates r and registers. A validation failure sends nothing.
func (f *RegistrationForm) Submit(ctx context.Context, r session.Registration) (*models.Session, error) {
	if err := r.Validate(); err != nil {
		f.setError(apperr.UserMessage(err, err.Error()))
		return nil, err
	}
	sess, err := f.registrar.Register(ctx, r.Name, r.Email, r.Password)
	if err != nil {
		f.setError(apperr.UserMessage(err, "Registration failed"))
		return nil, err
	}
	f.setError("")
	return sess, nil
}

// Error returns the inline error message
func (f *RegistrationForm) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *RegistrationForm) setError(msg string) {
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
}
