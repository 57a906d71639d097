package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
)

// ErrInvalidProduct marks every pricing rejection so callers can match the
// whole class with errors.Is.
var ErrInvalidProduct = errors.New("invalid product")

// ProductError names the offending product kind alongside the reason.
type ProductError struct {
	Kind   domain.ProductKind
	Reason string
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Reason)
}

func (e *ProductError) Unwrap() error { return ErrInvalidProduct }

func productErr(kind domain.ProductKind, format string, args ...any) error {
	return &ProductError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// ComputeTotal prices an ordered list of line items against the catalog and
// returns the integer sum. It is pure: identical catalog and items always
// produce the identical total. An empty list totals to zero; callers
// creating a payable order must reject a zero total themselves.
func (c *Catalog) ComputeTotal(items []domain.LineItem) (int64, error) {
	var total int64
	for _, item := range items {
		price, err := c.itemPrice(item)
		if err != nil {
			return 0, err
		}
		total += price
	}
	return total, nil
}

func (c *Catalog) itemPrice(item domain.LineItem) (int64, error) {
	switch item.Kind {
	case domain.KindCake:
		return c.cakePrice(item.Details)
	case domain.KindBread:
		return c.breadPrice(item.Details)
	case domain.KindMiniDonut:
		return c.miniDonutPrice(item.Details)
	case domain.KindBite:
		return c.bitePrice(item.Details)
	default:
		return 0, &ProductError{Kind: item.Kind, Reason: fmt.Sprintf("unknown product kind %q", item.Kind)}
	}
}

func (c *Catalog) cakePrice(d domain.ItemDetails) (int64, error) {
	if d.Name == "" {
		return 0, productErr(domain.KindCake, "cake name missing")
	}

	cake, ok := c.Cakes[d.Name]
	if !ok {
		return 0, productErr(domain.KindCake, "unknown cake: %s", d.Name)
	}

	// Flat-priced cakes ignore size entirely.
	if cake.UnitPrice > 0 {
		return cake.UnitPrice, nil
	}

	sizeKey := NormalizeSize(d.Size)
	if sizeKey == "" {
		return 0, productErr(domain.KindCake, "missing size for cake %s", d.Name)
	}

	if price, ok := cake.Sizes[sizeKey]; ok {
		return price, nil
	}

	// Range sizes like "20-25" fall back to their first bound.
	if first, _, found := strings.Cut(sizeKey, "-"); found {
		if price, ok := cake.Sizes[first]; ok {
			return price, nil
		}
	}

	return 0, productErr(domain.KindCake, "no price for cake %q with size %q (key %q)", d.Name, d.Size, sizeKey)
}

func (c *Catalog) breadPrice(d domain.ItemDetails) (int64, error) {
	if d.Name == "" {
		return 0, productErr(domain.KindBread, "bread name missing")
	}
	unit, ok := c.Breads[d.Name]
	if !ok {
		return 0, productErr(domain.KindBread, "unknown bread: %s", d.Name)
	}
	qty, err := quantity(domain.KindBread, d.Quantity)
	if err != nil {
		return 0, err
	}
	return unit * qty, nil
}

func (c *Catalog) miniDonutPrice(d domain.ItemDetails) (int64, error) {
	qty, err := quantity(domain.KindMiniDonut, d.Quantity)
	if err != nil {
		return 0, err
	}
	return c.MiniDonuts.UnitPrice * qty, nil
}

func (c *Catalog) bitePrice(d domain.ItemDetails) (int64, error) {
	if d.ID == "" {
		return 0, productErr(domain.KindBite, "bite id missing")
	}
	unit, ok := c.Bites[d.ID]
	if !ok {
		return 0, productErr(domain.KindBite, "unknown bite id: %s", d.ID)
	}
	qty, err := quantity(domain.KindBite, d.Quantity)
	if err != nil {
		return 0, err
	}
	return unit * qty, nil
}

func quantity(kind domain.ProductKind, q float64) (int64, error) {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 || q != math.Trunc(q) {
		return 0, productErr(kind, "invalid quantity: %v", q)
	}
	return int64(q), nil
}

// NormalizeSize strips the trailing unit word and surrounding whitespace
// from a free-form size string: "20 manna", "20manna" and " 20 Manna " all
// normalize to "20"; "12-15 manna" becomes "12-15".
func NormalizeSize(size string) string {
	s := strings.ToLower(strings.TrimSpace(size))
	s = strings.TrimRightFunc(s, unicode.IsLetter)
	return strings.TrimSpace(s)
}
