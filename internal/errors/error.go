package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDecode    Category = "decode"
	CategoryEncode    Category = "encode"
	CategoryCapture   Category = "capture"
	CategoryTransport Category = "transport"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// Location is a byte offset inside a named input.
type Location struct {
	Source string
	Offset int
}

// String returns the location as "source@0xOFFSET".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Source == "" {
		return fmt.Sprintf("@0x%04x", l.Offset)
	}
	return fmt.Sprintf("%s@0x%04x", l.Source, l.Offset)
}

// DiepError is a structured error with an input location and a suggestion.
type DiepError struct {
	// Code is a unique error identifier (e.g., "D001").
	Code string

	Category Category
	Message  string
	Detail   string

	// Location is where in the input the error occurred.
	Location *Location

	// Input holds the bytes around Location for the hex dump.
	Input []byte

	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *DiepError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *DiepError) Unwrap() error {
	return e.Wrapped
}

// WithOffset sets the location offset, keeping any source name.
func (e *DiepError) WithOffset(offset int) *DiepError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.Offset = offset
	return e
}

// WithInput attaches the input the error refers to. The location offset,
// if any, is kept.
func (e *DiepError) WithInput(source string, input []byte) *DiepError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	e.Location.Source = source
	e.Input = input
	return e
}

func (e *DiepError) WithSuggestion(s string) *DiepError {
	e.Suggestion = s
	return e
}

func (e *DiepError) WithDetail(d string) *DiepError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *DiepError) Wrap(err error) *DiepError {
	e.Wrapped = err
	return e
}

// New creates a DiepError from a registered error code.
func New(code string) *DiepError {
	template, ok := registry[code]
	if !ok {
		return &DiepError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &DiepError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new DiepError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *DiepError {
	return &DiepError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is a DiepError.
func FromError(err error, code string) *DiepError {
	if err == nil {
		return nil
	}
	var de *DiepError
	if errors.As(err, &de) {
		return de
	}
	return New(code).Wrap(err)
}
