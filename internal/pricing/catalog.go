package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Catalog is the read-only price table, loaded once at process start.
// All prices are in minor units of a zero-decimal currency (ISK), so every
// valid price is a positive integer.
type Catalog struct {
	Cakes      map[string]CakePricing `json:"cakes"`
	Breads     map[string]int64       `json:"breads"`
	MiniDonuts UnitPrice              `json:"miniDonuts"`
	Bites      map[string]int64       `json:"bites"`
}

type UnitPrice struct {
	UnitPrice int64 `json:"unitPrice"`
}

// CakePricing is either a flat unit price (size irrelevant) or a mapping of
// normalized size keys to prices. In JSON the two shapes share one object:
// a "unitPrice" key means flat pricing, every other key is a size tier.
type CakePricing struct {
	UnitPrice int64
	Sizes     map[string]int64
}

func (c *CakePricing) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Sizes = make(map[string]int64, len(raw))
	for key, num := range raw {
		v, err := num.Int64()
		if err != nil {
			return fmt.Errorf("price for %q is not an integer: %v", key, num)
		}
		if key == "unitPrice" {
			c.UnitPrice = v
			continue
		}
		c.Sizes[key] = v
	}
	return nil
}

func (c *CakePricing) MarshalJSON() ([]byte, error) {
	out := make(map[string]int64, len(c.Sizes)+1)
	for k, v := range c.Sizes {
		out[k] = v
	}
	if c.UnitPrice > 0 {
		out["unitPrice"] = c.UnitPrice
	}
	return json.Marshal(out)
}

// LoadCatalog reads and validates the price catalog from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &cat, nil
}

// Validate rejects non-positive prices. A bad price in the catalog is a
// configuration error, never a pricing-time condition.
func (c *Catalog) Validate() error {
	var problems []string

	for name, cake := range c.Cakes {
		if cake.UnitPrice < 0 {
			problems = append(problems, fmt.Sprintf("cake %q has negative unitPrice", name))
		}
		if cake.UnitPrice == 0 && len(cake.Sizes) == 0 {
			problems = append(problems, fmt.Sprintf("cake %q has no prices", name))
		}
		for size, price := range cake.Sizes {
			if price <= 0 {
				problems = append(problems, fmt.Sprintf("cake %q size %q has non-positive price", name, size))
			}
		}
	}
	for name, price := range c.Breads {
		if price <= 0 {
			problems = append(problems, fmt.Sprintf("bread %q has non-positive price", name))
		}
	}
	for id, price := range c.Bites {
		if price <= 0 {
			problems = append(problems, fmt.Sprintf("bite %q has non-positive price", id))
		}
	}
	if c.MiniDonuts.UnitPrice <= 0 {
		problems = append(problems, "miniDonuts.unitPrice must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
