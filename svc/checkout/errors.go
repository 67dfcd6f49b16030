package checkout

import "errors"

var (
	ErrUnauthenticated = errors.New("checkout: not authenticated")
	ErrUnknownPrice    = errors.New("checkout: unknown price")
	ErrCheckoutFailed  = errors.New("checkout: failed to create checkout session")
	ErrInvalidCatalog  = errors.New("checkout: invalid product catalog")
	ErrInvalidProvider = errors.New("checkout: invalid provider")
)
