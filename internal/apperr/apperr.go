package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error produced by the editor core or the remote client
// matches exactly one of them with errors.Is.
var (
	ErrFormat            = errors.New("format error")
	ErrDecodeIncomplete  = errors.New("decode incomplete")
	ErrPolicyViolation   = errors.New("policy violation")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrRemoteConflict    = errors.New("remote conflict")
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// Error is a kind plus the detail needed to show it to a user.
type Error struct {
	Kind    error
	Field   string
	Message string
	Status  int // remote HTTP status, 0 when not remote
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the kind, so errors.Is(err, ErrPolicyViolation) works on wrapped values.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

func New(kind error, field, message string) error {
	return &Error{Kind: kind, Field: field, Message: message}
}

func Wrap(kind error, field string, err error) error {
	return &Error{Kind: kind, Field: field, Err: err}
}

func Remote(kind error, status int, message string) error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// UserMessage renders err the way it should be shown in the editor.
// Remote failures keep status and body verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case ErrRemoteConflict, ErrRemoteUnavailable:
		if e.Status == 0 {
			return fmt.Sprintf("request failed: %s", detail(e))
		}
		return fmt.Sprintf("%d\n%s", e.Status, e.Message)
	case ErrInvalidQuantity:
		return "You cannot reduce the token amount to a quantity less than or equal to the amount of tokens used."
	case ErrDecodeIncomplete:
		return fmt.Sprintf("Rate table is incomplete: %s", detail(e))
	default:
		return detail(e)
	}
}

func detail(e *Error) string {
	parts := make([]string, 0, 2)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return e.Kind.Error()
	}
	return strings.Join(parts, ": ")
}

// Kind reports which of the error kinds err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{
		ErrFormat, ErrDecodeIncomplete, ErrPolicyViolation,
		ErrInvalidQuantity, ErrRemoteConflict, ErrRemoteUnavailable,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
