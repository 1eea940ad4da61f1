package helper

import "fmt"

// Error wraps an underlying error with the operation that failed.
type Error struct {
	Context string
	Err     error
}

// NewError creates a new error with the given context.
// The original error stays reachable through errors.Is and errors.As.
func NewError(context string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Context: context, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
