package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON encodes v with status 200.
func JSON(v any) Response {
	return jsonResponse{status: http.StatusOK, body: v}
}

// JSONError maps err onto a status code and the error envelope.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := ErrorDetail{Code: "internal_error", Message: http.StatusText(status)}

	var valErr ValidationError
	var httpErr HTTPError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
		detail = ErrorDetail{Code: "validation_error", Message: "Validation failed", Details: valErr}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail = ErrorDetail{Code: httpErr.Key, Message: httpErr.Message}
	}

	return jsonResponse{status: status, body: ErrorBody{Error: detail}}
}

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty responds 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}
