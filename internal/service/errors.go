// internal/service/errors.go
package service

import (
	"errors"
	"fmt"
)

// Session errors. Failures carrying a cause wrap both the sentinel and
// the cause, so errors.Is works for either.
var (
	ErrPortNotAvailable    = errors.New("port not available")
	ErrOpenFailure         = errors.New("failed to open port")
	ErrNotConnected        = errors.New("not connected")
	ErrWriteFailure        = errors.New("write failed")
	ErrReadFailure         = errors.New("read failed")
	ErrFileCreateFailure   = errors.New("failed to create recording file")
	ErrFolderNotSet        = errors.New("recording folder not set")
	ErrRecordingInProgress = errors.New("recording in progress")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

func wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// ErrorCode returns a stable identifier for a session error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrPortNotAvailable):
		return "PORT_NOT_AVAILABLE"
	case errors.Is(err, ErrOpenFailure):
		return "OPEN_FAILURE"
	case errors.Is(err, ErrNotConnected):
		return "NOT_CONNECTED"
	case errors.Is(err, ErrWriteFailure):
		return "WRITE_FAILURE"
	case errors.Is(err, ErrReadFailure):
		return "READ_FAILURE"
	case errors.Is(err, ErrFileCreateFailure):
		return "FILE_CREATE_FAILURE"
	case errors.Is(err, ErrFolderNotSet):
		return "FOLDER_NOT_SET"
	case errors.Is(err, ErrRecordingInProgress):
		return "RECORDING_IN_PROGRESS"
	case errors.Is(err, ErrInvalidConfig):
		return "INVALID_CONFIG"
	default:
		return "INTERNAL_ERROR"
	}
}
