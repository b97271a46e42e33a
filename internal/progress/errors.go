package progress

import "errors"

var (
	// ErrValidation indicates malformed input to a progress operation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a key result id that does not belong to the objective.
	ErrNotFound = errors.New("key result not found")
)

// ValidationError describes which input was rejected and why.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap returns ErrValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError names the key result id that could not be matched.
type NotFoundError struct {
	KeyResultID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return "key result " + e.KeyResultID + " not found on objective"
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
