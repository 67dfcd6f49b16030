package tester

import "errors"

var (
	ErrCodeNotFound    = errors.New("tester: code not found")
	ErrCodeUnavailable = errors.New("tester: code unavailable")
)
