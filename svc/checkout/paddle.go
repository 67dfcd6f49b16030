package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleProvider creates Paddle transactions and returns their hosted
// checkout URL.
type PaddleProvider struct {
	client *paddle.SDK
}

func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: paddle API key is required", ErrInvalidProvider)
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: paddle environment %q", ErrInvalidProvider, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}
	return &PaddleProvider{client: client}, nil
}

func (p *PaddleProvider) CreateCheckout(ctx context.Context, req Request) (string, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id": req.UserID.String(),
			"email":   req.Email,
		},
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return "", fmt.Errorf("%w: no checkout url returned from paddle", ErrCheckoutFailed)
	}
	return *tx.Checkout.URL, nil
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderEndpoint, "":
		if cfg.URL == "" {
			return nil, fmt.Errorf("%w: CHECKOUT_URL is empty", ErrInvalidProvider)
		}
		return NewEndpointProvider(cfg), nil
	case ProviderPaddle:
		return NewPaddleProvider(cfg.Paddle)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, cfg.Provider)
	}
}
