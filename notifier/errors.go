package notifier

import (
	"errors"
	"fmt"
)

// Failure categories. Each stage wraps its errors with exactly one of these
// so callers can classify a failed run without inspecting message text.
var (
	// ErrFetch covers network failures, timeouts and non-2xx responses.
	ErrFetch = errors.New("fetch failed")

	// ErrParse covers malformed upstream content. Validation is
	// all-or-nothing: a single bad field fails the whole record.
	ErrParse = errors.New("parse failed")

	// ErrDateParse is the date-specific subtype of ErrParse. A wrapped
	// ErrDateParse also matches ErrParse.
	ErrDateParse = fmt.Errorf("date: %w", ErrParse)

	// ErrStore covers key-value and document store failures.
	ErrStore = errors.New("store failed")

	// ErrChannel covers notification channel post failures.
	ErrChannel = errors.New("notification channel failed")
)
