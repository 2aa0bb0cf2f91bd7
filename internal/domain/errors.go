package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced to a connection wraps exactly one of them.
var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("auth")
	ErrState      = errors.New("state")
)

// Error carries the human-readable text that is sent back on the wire.
type Error struct {
	Kind error
	Text string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Text) }
func (e *Error) Unwrap() error { return e.Kind }

func Validation(text string) error { return &Error{Kind: ErrValidation, Text: text} }
func NotFound(text string) error   { return &Error{Kind: ErrNotFound, Text: text} }
func Auth(text string) error       { return &Error{Kind: ErrAuth, Text: text} }
func State(text string) error      { return &Error{Kind: ErrState, Text: text} }

// ErrorText returns the text a client is allowed to see for err.
func ErrorText(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Text
	}
	return "Something went wrong"
}
