package cookie

import "errors"

var (
	ErrNoSecret         = errors.New("cookie: no secret configured")
	ErrSecretTooShort   = errors.New("cookie: secret too short")
	ErrDecryptionFailed = errors.New("cookie: value cannot be decrypted with any secret")
	ErrCookieNotFound   = errors.New("cookie: not found")
	ErrInvalidFormat    = errors.New("cookie: malformed value")
)
