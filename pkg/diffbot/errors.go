package diffbot

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error returned by this package.
type ErrorKind int

const (
	// KindTransport covers network failures and undecodable responses.
	KindTransport ErrorKind = iota
	// KindCredential means no token could be resolved for the profile.
	KindCredential
	// KindResponse means the service answered with an in-body error envelope.
	KindResponse
	// KindJobStatus means results were requested from a job that has not
	// reached the terminal-success status.
	KindJobStatus
	// KindNotFound means the named job is absent from the job listing.
	KindNotFound
	// KindUnknownExtractorType means a result carried an unrecognized type.
	KindUnknownExtractorType
	// KindMissingField means a required key is absent from a result.
	KindMissingField
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindCredential:
		return "credential"
	case KindResponse:
		return "response"
	case KindJobStatus:
		return "job status"
	case KindNotFound:
		return "not found"
	case KindUnknownExtractorType:
		return "unknown extractor type"
	case KindMissingField:
		return "missing field"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single structured error type of the package. Which fields
// are populated depends on Kind.
type Error struct {
	Kind ErrorKind

	// Code is the service errorCode (KindResponse).
	Code int
	// Status is the job status code (KindJobStatus).
	Status JobStatusCode
	// Message is the service message, or a description of the failure.
	Message string
	// Job is the job name (KindJobStatus, KindNotFound).
	Job string
	// Type is the offending discriminator (KindUnknownExtractorType).
	Type string
	// Field is the absent key (KindMissingField).
	Field string

	Err error
}

// Error formats the message according to Kind.
func (e *Error) Error() string {
	switch e.Kind {
	case KindResponse:
		return fmt.Sprintf("diffbot: response error #%d: %s", e.Code, e.Message)
	case KindJobStatus:
		return fmt.Sprintf("diffbot: job %q status #%d: %s", e.Job, int(e.Status), e.Message)
	case KindNotFound:
		return fmt.Sprintf("diffbot: job %q not found", e.Job)
	case KindUnknownExtractorType:
		return fmt.Sprintf("diffbot: unknown extractor type %q", e.Type)
	case KindMissingField:
		return fmt.Sprintf("diffbot: %s result has no %q field", e.Type, e.Field)
	case KindCredential:
		if e.Err != nil {
			return fmt.Sprintf("diffbot: credential error: %s: %v", e.Message, e.Err)
		}
		return fmt.Sprintf("diffbot: credential error: %s", e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("diffbot: %s: %v", e.Message, e.Err)
		}
		return "diffbot: " + e.Message
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone, e.g.
// errors.Is(err, &diffbot.Error{Kind: diffbot.KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf reports the kind of err. ok is false when err is not (and does
// not wrap) an *Error.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func responseError(code int, msg string) *Error {
	return &Error{Kind: KindResponse, Code: code, Message: msg}
}

func transportError(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

// CredentialError wraps a token resolution failure.
func CredentialError(msg string, err error) *Error {
	return &Error{Kind: KindCredential, Message: msg, Err: err}
}
