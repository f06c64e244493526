package stowgate

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream matches every *UpstreamFailure via errors.Is
	ErrUpstream = errors.New("upstream failure")
)

// FailureKind classifies an UpstreamFailure.
type FailureKind string

const (
	// KindRejected means the provider answered with a non-2xx status.
	KindRejected FailureKind = "upstream-rejected"
	// KindNoResponse means the request went out but no response came back.
	KindNoResponse FailureKind = "no-response"
	// KindRequestSetup means the call could not be built or sent, or the
	// response could not be understood.
	KindRequestSetup FailureKind = "request-setup-failure"
)

// UpstreamFailure is the only error type produced by provider calls.
type UpstreamFailure struct {
	Kind      FailureKind
	Operation string

	// Set for KindRejected.
	StatusCode int
	Body       string
	Code       string // provider error code, when the body carried one
	Message    string // provider error message, when the body carried one

	Err error
}

func (f *UpstreamFailure) Error() string {
	switch f.Kind {
	case KindRejected:
		msg := f.Operation + ": upstream rejected with status " + strconv.Itoa(f.StatusCode)
		if f.Code != "" {
			msg += " (" + f.Code + ")"
		}
		if f.Message != "" {
			msg += ": " + f.Message
		}
		return msg
	default:
		if f.Err != nil {
			return fmt.Sprintf("%s: %s: %v", f.Operation, f.Kind, f.Err)
		}
		return f.Operation + ": " + string(f.Kind)
	}
}

func (f *UpstreamFailure) Unwrap() error {
	return f.Err
}

// Is reports whether target is ErrUpstream, or an *UpstreamFailure with the
// same kind (and status code, when target sets one).
func (f *UpstreamFailure) Is(target error) bool {
	if target == ErrUpstream {
		return true
	}
	t, ok := target.(*UpstreamFailure)
	if !ok {
		return false
	}
	if t.Kind != f.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == f.StatusCode
}

// Rejected builds a KindRejected failure.
func Rejected(op string, status int, body string) *UpstreamFailure {
	return &UpstreamFailure{Kind: KindRejected, Operation: op, StatusCode: status, Body: body}
}

// NoResponse builds a KindNoResponse failure.
func NoResponse(op string, err error) *UpstreamFailure {
	return &UpstreamFailure{Kind: KindNoResponse, Operation: op, Err: err}
}

// RequestSetup builds a KindRequestSetup failure.
func RequestSetup(op string, err error) *UpstreamFailure {
	return &UpstreamFailure{Kind: KindRequestSetup, Operation: op, Err: err}
}
