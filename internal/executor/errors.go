// File: internal/executor/errors.go
package executor

import "fmt"

// ErrorCode is a string type used for structured error reporting from action
// execution. Using a custom type ensures only predefined constants can be
// used where an ErrorCode is expected.
type ErrorCode string

const (
	ErrCodeUnknownAction     ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeDeviceCommand     ErrorCode = "DEVICE_COMMAND_FAILED"
	ErrCodeWindowSize        ErrorCode = "WINDOW_SIZE_UNAVAILABLE"
	ErrCodeInterrupted       ErrorCode = "INTERRUPTED"
)

// ExecutionError wraps a device failure with the action kind and a stable
// code so the loop can log and count it without string matching.
type ExecutionError struct {
	Code   ErrorCode
	Action string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("execute %s: %s", e.Action, e.Code)
	}
	return fmt.Sprintf("execute %s: %s: %v", e.Action, e.Code, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func execErr(code ErrorCode, action string, err error) *ExecutionError {
	return &ExecutionError{Code: code, Action: action, Err: err}
}
