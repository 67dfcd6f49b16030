package entitlement

import "errors"

var (
	ErrRecordNotFound = errors.New("entitlement: record not found")
	ErrFetchFailed    = errors.New("entitlement: fetch failed")
)
