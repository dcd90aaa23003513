package tx

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Every Kind in this package describes a malformed transaction: callers that
// only need the coarse category can use IsMalformed.
type Kind string

const (
	KindMissingField Kind = "MissingField"
	KindOutOfDomain  Kind = "OutOfDomain"
	KindEncoding     Kind = "Encoding"
)

// Error is the canonicalizer's structured error type.
//
// RuleID is a stable identifier (e.g. TX-AMT-001, TX-ENC-004) naming the
// violated rule. Field names the offending RawTransaction field, if any.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field == "" {
		return "malformed transaction: " + e.Message
	}
	return "malformed transaction: " + e.Field + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func missingField(ruleID, field string) error {
	return &Error{Kind: KindMissingField, RuleID: ruleID, Field: field, Message: "required field missing"}
}

func outOfDomain(ruleID, field, msg string) error {
	return &Error{Kind: KindOutOfDomain, RuleID: ruleID, Field: field, Message: msg}
}

func encodingError(ruleID, msg string) error {
	return &Error{Kind: KindEncoding, RuleID: ruleID, Message: msg}
}

// IsMalformed reports whether err is (or wraps) a *Error.
func IsMalformed(err error) bool {
	var e *Error
	return errors.As(err, &e)
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
