package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation marks a local rejection of user input. No request is issued
// for a rejected input.
var ErrValidation = errors.New("validation failed")

// ValidationError is a rejection with a message meant for inline display.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func pageRangeError(totalPages int) error {
	if totalPages < 1 {
		return validationf("no pages to jump to")
	}
	return validationf("enter a page number between 1 and %d", totalPages)
}

// ParsePageJump validates user-typed page input against [1, totalPages].
// Only a plain base-10 integer is accepted; surrounding space is ignored.
func ParsePageJump(input string, totalPages int) (int, error) {
	if totalPages < 1 {
		return 0, pageRangeError(totalPages)
	}
	s := strings.TrimSpace(input)
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, pageRangeError(totalPages)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > totalPages {
		return 0, pageRangeError(totalPages)
	}
	return n, nil
}
