package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotApproved        = errors.New("account not approved")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrAdminProtected     = errors.New("admin accounts cannot be deleted")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("email already registered")
	ErrUserIDTaken  = errors.New("user identifier already taken")

	ErrLanguageNotFound = errors.New("language not found")
	ErrLanguageExists   = errors.New("language already exists")
	ErrSentenceNotFound = errors.New("sentence not found")
	ErrSentenceExists   = errors.New("sentence already exists")

	ErrRecordingNotFound = errors.New("recording not found")
	ErrAlreadyRecorded   = errors.New("sentence already recorded")
	ErrAudioNotFound     = errors.New("audio file not found")
	ErrPayloadTooLarge   = errors.New("audio payload too large")
	ErrUnsafePath        = errors.New("audio path escapes storage root")

	ErrSeedMismatch     = errors.New("sentence and translation counts differ")
	ErrSeedFileNotFound = errors.New("seed file not found")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
