package account

import "errors"

var (
	ErrPasswordMismatch = errors.New("account: passwords do not match")
	ErrPasswordTooShort = errors.New("account: password too short")
	ErrSignInFailed     = errors.New("account: sign in failed")
	ErrSignUpFailed     = errors.New("account: sign up failed")
	ErrRefreshFailed    = errors.New("account: token refresh failed")
)

const (
	msgPasswordMismatch = "Passwords do not match"
	msgPasswordTooShort = "Password must be at least 6 characters"
	msgUnexpected       = "An unexpected error occurred"
	msgConfirmEmail     = "Check your email to confirm your account, then sign in."
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6
