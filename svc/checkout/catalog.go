package checkout

import (
	_ "embed"
	"errors"
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultCatalog []byte

// Mode is the kind of checkout a price is sold with.
type Mode string

const (
	ModeSubscription Mode = "subscription"
	ModePayment      Mode = "payment"
)

// Product is a purchasable price.
type Product struct {
	PriceID     string  `yaml:"price_id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Mode        Mode    `yaml:"mode"`
	Price       float64 `yaml:"price"`
	Currency    string  `yaml:"currency"`
}

// DisplayPrice formats the price for the given language tag, e.g. "$ 3.99".
func (p Product) DisplayPrice(tag language.Tag) string {
	unit, err := currency.ParseISO(p.Currency)
	if err != nil {
		return message.NewPrinter(tag).Sprintf("%.2f %s", p.Price, p.Currency)
	}
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(p.Price)))
}

// Catalog is the ordered list of products.
type Catalog struct {
	products []Product
	byPrice  map[string]Product
}

// DefaultCatalog returns the embedded product catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog reads a YAML document with a top-level "products" list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	c := &Catalog{byPrice: make(map[string]Product, len(doc.Products))}
	for _, p := range doc.Products {
		switch {
		case p.PriceID == "":
			return nil, fmt.Errorf("%w: product %q has no price id", ErrInvalidCatalog, p.Name)
		case p.Mode != ModeSubscription && p.Mode != ModePayment:
			return nil, fmt.Errorf("%w: price %s has mode %q", ErrInvalidCatalog, p.PriceID, p.Mode)
		}
		if _, dup := c.byPrice[p.PriceID]; dup {
			return nil, fmt.Errorf("%w: duplicate price %s", ErrInvalidCatalog, p.PriceID)
		}
		c.byPrice[p.PriceID] = p
		c.products = append(c.products, p)
	}
	return c, nil
}

func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

func (c *Catalog) Product(priceID string) (Product, bool) {
	p, ok := c.byPrice[priceID]
	return p, ok
}

// PlanName returns the product name sold under priceID.
func (c *Catalog) PlanName(priceID string) (string, bool) {
	p, ok := c.byPrice[priceID]
	if !ok {
		return "", false
	}
	return p.Name, true
}
