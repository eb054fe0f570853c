package logger

import (
	"context"
	"errors"
)

// Coder is implemented by errors that carry a stable machine-readable code.
type Coder interface {
	Code() string
}

// ErrorCode returns the code of the first error in the chain implementing
// Coder. Context errors map to CANCELLED/TIMEOUT and anything else to
// INTERNAL. A nil error yields "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var c Coder
	if errors.As(err, &c) {
		if code := c.Code(); code != "" {
			return code
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "CANCELLED"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	}
	return "INTERNAL"
}
