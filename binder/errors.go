package binder

import "errors"

var (
	// ErrBinderNotApplicable tells handler.Wrap to skip a binder whose
	// content type does not match the request.
	ErrBinderNotApplicable = errors.New("binder not applicable to request")

	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrInvalidForm  = errors.New("invalid form data")
	ErrInvalidQuery = errors.New("invalid query parameter")
)
