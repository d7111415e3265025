package fileops

import (
	"errors"
	"fmt"

	"videodrome/internal/services"
)

// Code classifies a mover failure.
type Code string

const (
	CodeInvalidExtension Code = "invalid_extension"
	CodePathRestriction  Code = "path_restriction"
	CodeIO               Code = "io"
)

// Error is returned by every Mover operation.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers classify mover failures with the services markers.
func (e *Error) Is(target error) bool {
	switch target {
	case services.ErrValidation:
		return e.Code == CodeInvalidExtension || e.Code == CodePathRestriction
	case services.ErrExternalTool:
		return e.Code == CodeIO
	default:
		return false
	}
}

// CodeOf returns the mover code carried by err, or "" when err is not a
// mover error.
func CodeOf(err error) Code {
	var moverErr *Error
	if errors.As(err, &moverErr) {
		return moverErr.Code
	}
	return ""
}
