package application

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// password-less (Google-only) accounts alike, so callers cannot probe for
	// account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	// ErrAccountConflict is returned when a Google sign-in resolves to an
	// email that already belongs to a password account.
	ErrAccountConflict = errors.New("account already registered with a password")
	ErrStoryNotFound   = errors.New("story not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUploadsDisabled = errors.New("uploads not configured")
)

// ValidationError carries a message safe to surface verbatim to the user.
type ValidationError struct {
	msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
