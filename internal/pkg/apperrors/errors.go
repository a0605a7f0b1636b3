package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary handling: terminal kinds close the
// websocket connection, non-terminal kinds become an error reply to the sender.
type Kind string

const (
	KindAuth         Kind = "auth"           // bad/expired/malformed credential (terminal)
	KindUserNotFound Kind = "user_not_found" // authenticated but unknown user (terminal)
	KindProtocol     Kind = "protocol"       // malformed or incomplete inbound frame
	KindValidation   Kind = "validation"     // business-rule rejection (e.g. role pairing)
	KindTransient    Kind = "transient"      // storage or fan-out I/O failure
	KindUnknown      Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Plain errors are treated as
// transient so callers default to the safe, non-terminal path.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if err != nil {
		return KindTransient
	}
	return KindUnknown
}

// UserMessage returns the human-readable reason carried by the error chain,
// suitable for the `{"status":"error"}` reply payload.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

func IsTerminal(err error) bool {
	k := KindOf(err)
	return k == KindAuth || k == KindUserNotFound
}
