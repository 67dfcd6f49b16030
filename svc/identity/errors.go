package identity

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed   = errors.New("identity: request failed")
	ErrInvalidResponse = errors.New("identity: invalid response")
	ErrMissingToken    = errors.New("identity: missing token")
)

// Error is a non-2xx answer from the identity service. Message is written for
// end users and is shown as is.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %d %s: %s", e.Status, e.Code, e.Message)
}

// apiError covers both error shapes GoTrue returns.
type apiError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (a apiError) toError(status int) *Error {
	e := &Error{Status: status, Code: a.ErrorCode}
	if e.Code == "" {
		e.Code = a.Err
	}
	for _, m := range []string{a.Msg, a.Message, a.ErrorDescription, a.Err} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = "Authentication service error"
	}
	return e
}

// Message extracts the user-facing message from err, or "" when err is not
// an identity service error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
