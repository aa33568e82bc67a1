package apperror

import "errors"

type Code string

const (
	Validation Code = "VALIDATION"
	Resolution Code = "RESOLUTION"
	Fetch      Code = "FETCH"
	Storage    Code = "STORAGE"
	Render     Code = "RENDER"
)

type AppError struct {
	code    Code
	message string
	err     error
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

// Wrap attaches a cause so callers can classify the error while errors.Is/As
// still reach the underlying one.
func Wrap(code Code, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

func (e *AppError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.err }

// CodeOf returns the code of the outermost AppError in err's chain, or an
// empty code when there is none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return ""
}
