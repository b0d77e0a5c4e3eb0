package errs

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrSolutionNotFound   = errors.New("ai solution not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidPriority    = errors.New("invalid priority: must be LOW, MEDIUM or HIGH")
	ErrInvalidStatus      = errors.New("invalid status: must be OPEN, IN_PROGRESS or CLOSED")
	ErrNoChanges          = errors.New("no changes provided")
	ErrUnknownSystem      = errors.New("invalid system")
	ErrDocumentMissing    = errors.New("documentation not found")
	ErrGeneration         = errors.New("ai generation failed")
)

// PasswordError перечисляет все нарушения правил пароля сразу.
type PasswordError struct {
	Messages []string
}

func (e *PasswordError) Error() string {
	return "password rejected: " + strings.Join(e.Messages, "; ")
}
