// Package checkout starts hosted checkout sessions for catalog prices.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/session"
)

// Request is what a Provider needs to open a checkout.
type Request struct {
	UserID      uuid.UUID
	Email       string
	PriceID     string
	Mode        Mode
	SuccessURL  string
	CancelURL   string
	Credentials *oauth2.Token
}

// Provider creates a hosted checkout and returns the URL to send the user to.
type Provider interface {
	CreateCheckout(ctx context.Context, req Request) (string, error)
}

// Initiator validates checkout requests and hands them to a Provider.
type Initiator struct {
	provider Provider
	catalog  *Catalog
	logger   *slog.Logger
}

type Option func(*Initiator)

func WithCatalog(c *Catalog) Option {
	return func(i *Initiator) { i.catalog = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Initiator) { i.logger = l }
}

func NewInitiator(provider Provider, opts ...Option) *Initiator {
	i := &Initiator{provider: provider, logger: logger.Discard()}
	for _, opt := range opts {
		opt(i)
	}
	if i.catalog == nil {
		i.catalog = DefaultCatalog()
	}
	return i
}

func (i *Initiator) Catalog() *Catalog { return i.catalog }

// Start returns the hosted checkout URL for priceID. The provider returns the
// user to origin+"/success" after paying and to origin+"/subscription" when
// they cancel. There is no retry.
func (i *Initiator) Start(ctx context.Context, sess *session.Session, priceID, origin string) (string, error) {
	if sess == nil || sess.AccessToken() == "" {
		return "", ErrUnauthenticated
	}
	product, ok := i.catalog.Product(priceID)
	if !ok {
		return "", errors.Join(ErrCheckoutFailed, ErrUnknownPrice)
	}

	origin = strings.TrimRight(origin, "/")
	url, err := i.provider.CreateCheckout(ctx, Request{
		UserID:      sess.UserID,
		Email:       sess.Email,
		PriceID:     product.PriceID,
		Mode:        product.Mode,
		SuccessURL:  origin + "/success",
		CancelURL:   origin + "/subscription",
		Credentials: sess.Credentials,
	})
	if err == nil && url == "" {
		err = errors.New("provider returned no url")
	}
	if err != nil {
		i.logger.WarnContext(ctx, "checkout failed",
			logger.Component("checkout"),
			logger.UserID(sess.UserID),
			logger.Error(err),
		)
		if errors.Is(err, ErrCheckoutFailed) {
			return "", err
		}
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	return url, nil
}
