package parse

import (
	"fmt"
)

// Error is reported by the tokenizer and carries the offending option or
// argument name so callers can attach the owning parameter to usage errors.
type Error struct {
	Opt        string
	Err        error
	Suggestion string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Err, e.Opt)
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean %s?)", msg, e.Suggestion)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
