package cart

import (
	"github.com/shopspring/decimal"
)

// Item is a single cart line. There is no quantity field: adding the same
// product twice produces two entries, and each entry is exactly one unit.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// Cart is an explicit value object. Mutations happen on the value; persistence
// only occurs when the caller hands the cart to a Store at a save point.
type Cart struct {
	Items []Item `json:"items"`
}

func New() *Cart {
	return &Cart{Items: []Item{}}
}

func (c *Cart) Add(item Item) {
	c.Items = append(c.Items, item)
}

// Remove deletes the first entry matching productID and reports whether an
// entry was removed.
func (c *Cart) Remove(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = c.Items[:0]
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Total sums the item prices. Display only; checkout recomputes the
// authoritative amount from the catalog.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price)
	}
	return total
}
