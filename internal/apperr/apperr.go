// Package apperr tags failures with the category used to pick a user-facing message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindAsset       Kind = "asset"
	KindLibrary     Kind = "library"
	KindNetwork     Kind = "network"
	KindFont        Kind = "font"
	KindPersistence Kind = "persistence"
	KindDisabled    Kind = "disabled"
	KindUnexpected  Kind = "unexpected"
)

const (
	generatePrefix = "Error generating certificate. "

	MsgLibrary = generatePrefix + "PDF library not loaded properly. Please refresh the page and try again."
	MsgNetwork = generatePrefix + "Could not load certificate template. Please check your internet connection."
	MsgFont    = generatePrefix + "Font loading failed. Using fallback font."
	MsgRetry   = generatePrefix + "Please try again. Error: "

	MsgVerifyFailed = "Error verifying certificate. Please try again."
	MsgDisabled     = "Certificate generation is currently disabled."
)

// Error is a failure tagged with a Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with kind and op. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a tagged error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost tagged error in err's chain,
// or KindUnexpected when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage maps an issuance failure onto one of the canned messages.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindLibrary:
		return MsgLibrary
	case KindNetwork:
		return MsgNetwork
	case KindFont:
		return MsgFont
	case KindDisabled:
		return MsgDisabled
	default:
		return MsgRetry + err.Error()
	}
}
