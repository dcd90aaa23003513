package txsig

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Signing fails with KindInvalidTransaction or KindKeyUnavailable.
// Verification fails with KindMalformedTransaction, KindInvalidPublicKey or,
// for envelopes, KindEncoding. A signature that simply does not verify is not
// an error.
type Kind string

const (
	KindInvalidTransaction   Kind = "InvalidTransaction"
	KindKeyUnavailable       Kind = "KeyUnavailable"
	KindMalformedTransaction Kind = "MalformedTransaction"
	KindInvalidPublicKey     Kind = "InvalidPublicKey"
	KindEncoding             Kind = "Encoding"
)

// Error is the structured error returned by signing and verification.
//
// When the failure originates in canonicalization, Cause is the *tx.Error.
// When it originates in the key handle, Cause is whatever the handle returned.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
