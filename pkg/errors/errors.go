package errors

import "fmt"

// AppError carries a stable code so call sites can decide between fatal,
// fallback and skip without matching on message text.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	// fatal, startup only
	ErrConfigLoad = "CONFIG_LOAD_ERROR"
	// external LLM / content source fault, caller degrades gracefully
	ErrService = "SERVICE_ERROR"
	// gateway rejected a send, logged and skipped inside sweeps
	ErrPermissionDenied = "PERMISSION_DENIED"
	ErrDatabase         = "DATABASE_ERROR"
	ErrRateLimited      = "RATE_LIMITED"
	ErrInvalidInput     = "INVALID_INPUT"
)

// CodeOf returns the error's code, or empty when it is not an AppError.
func CodeOf(err error) string {
	var app *AppError
	for err != nil {
		if a, ok := err.(*AppError); ok {
			app = a
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if app == nil {
		return ""
	}
	return app.Code
}
