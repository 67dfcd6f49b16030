package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrNilResponse = errors.New("handler returned nil response")
	ErrNotDataStar = NewHTTPError(http.StatusBadRequest, "datastar_required", "This endpoint requires a Datastar connection")
)

// HTTPError carries a status code, a machine key and a user-facing message.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

func (e HTTPError) Error() string { return e.Key }

func NewHTTPError(code int, key, message string) HTTPError {
	return HTTPError{Code: code, Key: key, Message: message}
}

var (
	ErrBadRequest      = NewHTTPError(http.StatusBadRequest, "bad_request", "Bad request")
	ErrUnauthorized    = NewHTTPError(http.StatusUnauthorized, "unauthorized", "Please sign in to continue")
	ErrForbidden       = NewHTTPError(http.StatusForbidden, "forbidden", "Forbidden")
	ErrNotFound        = NewHTTPError(http.StatusNotFound, "not_found", "Page not found")
	ErrTooManyRequests = NewHTTPError(http.StatusTooManyRequests, "too_many_requests", "Too many attempts, please wait a moment")
	ErrInternal        = NewHTTPError(http.StatusInternalServerError, "internal_error", "Something went wrong")
	ErrBadGateway      = NewHTTPError(http.StatusBadGateway, "bad_gateway", "Upstream service failed")
)

// ValidationError maps form fields to messages.
type ValidationError url.Values

func NewValidationError() ValidationError {
	return make(ValidationError)
}

func (e ValidationError) Add(field, message string) { url.Values(e).Add(field, message) }
func (e ValidationError) Get(field string) string   { return url.Values(e).Get(field) }
func (e ValidationError) Has(field string) bool     { return len(e[field]) > 0 }
func (e ValidationError) IsEmpty() bool             { return len(e) == 0 }

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if msgs := e[field]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs[0]))
		}
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Messages returns the first message of every field in field order.
func (e ValidationError) Messages() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if msg := e.Get(field); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}
