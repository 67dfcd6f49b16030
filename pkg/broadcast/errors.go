package broadcast

import "errors"

var (
	ErrClosed        = errors.New("broadcast: broadcaster is closed")
	ErrPublishFailed = errors.New("broadcast: publish failed")
)
