package rag

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks validation failures on caller-supplied questions and
// ticker filters. It is never retried and always surfaces to the caller;
// check with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

func invalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}
