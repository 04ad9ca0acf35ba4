package errclass

import "fmt"

// ScalarError is a stable, machine-readable error class.
type ScalarError struct {
	Code    string
	Message string
}

func (e *ScalarError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScalarError) Is(target error) bool {
	t, ok := target.(*ScalarError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new ScalarError with the same Code but a specific message.
func (e *ScalarError) WithMessage(msg string) *ScalarError {
	return &ScalarError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new ScalarError with a formatted message.
func (e *ScalarError) WithMessagef(format string, args ...any) *ScalarError {
	return &ScalarError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Stable error classes.
var (
	ErrNotEnlistment  = &ScalarError{Code: "E_NOT_ENLISTMENT"}
	ErrLockConflict   = &ScalarError{Code: "E_LOCK_CONFLICT"}
	ErrLockNotHeld    = &ScalarError{Code: "E_LOCK_NOT_HELD"}
	ErrStepUnknown    = &ScalarError{Code: "E_STEP_UNKNOWN"}
	ErrGitUnavailable = &ScalarError{Code: "E_GIT_UNAVAILABLE"}
	ErrConfigInvalid  = &ScalarError{Code: "E_CONFIG_INVALID"}
	ErrStopping       = &ScalarError{Code: "E_STOPPING"}
)
