package orders

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyCart is returned when checking out a cart without lines.
var ErrEmptyCart = errors.New("cart is empty")

// NewOrder is the body of POST /api/orders.
type NewOrder struct {
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	Items         []NewItem `json:"items"`
}

// NewItem is one requested line of a NewOrder.
type NewItem struct {
	ProductID      int64          `json:"productId"`
	Quantity       int            `json:"quantity"`
	Customizations Customizations `json:"customizations"`
}

// Validate checks the request before it is sent.
func (n NewOrder) Validate() error {
	if strings.TrimSpace(n.CustomerName) == "" {
		return errors.New("customer name is required")
	}
	if len(n.Items) == 0 {
		return ErrEmptyCart
	}
	for i, item := range n.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("item %d: product id is required", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
	}
	return nil
}

// CartLine is a product in the cart with its chosen customizations.
type CartLine struct {
	ProductID      int64
	Name           string
	Quantity       int
	Customizations Customizations
}

// Cart accumulates lines before checkout. Adding the same product with the
// same customizations bumps the quantity of the existing line.
type Cart struct {
	lines []CartLine
}

// Add puts one unit of the product in the cart.
func (c *Cart) Add(productID int64, name string, customizations Customizations) {
	key := customizations.Key()
	for i := range c.lines {
		if c.lines[i].ProductID == productID && c.lines[i].Customizations.Key() == key {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, CartLine{
		ProductID:      productID,
		Name:           name,
		Quantity:       1,
		Customizations: customizations.Clone(),
	})
}

// Adjust changes a line's quantity by delta, removing the line when it drops
// to zero. Out-of-range indexes are ignored.
func (c *Cart) Adjust(index, delta int) {
	if index < 0 || index >= len(c.lines) {
		return
	}
	c.lines[index].Quantity += delta
	if c.lines[index].Quantity <= 0 {
		c.lines = append(c.lines[:index], c.lines[index+1:]...)
	}
}

// Lines returns a copy of the cart's lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// Clear empties the cart.
func (c *Cart) Clear() { c.lines = nil }

// Checkout builds the create-order request. The cart is left untouched so a
// failed submission can be retried.
func (c *Cart) Checkout(customerName, customerPhone string) (NewOrder, error) {
	if len(c.lines) == 0 {
		return NewOrder{}, ErrEmptyCart
	}
	req := NewOrder{
		CustomerName:  strings.TrimSpace(customerName),
		CustomerPhone: strings.TrimSpace(customerPhone),
		Items:         make([]NewItem, 0, len(c.lines)),
	}
	for _, line := range c.lines {
		custom := line.Customizations.Clone()
		if custom == nil {
			custom = Customizations{}
		}
		req.Items = append(req.Items, NewItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			Customizations: custom,
		})
	}
	if err := req.Validate(); err != nil {
		return NewOrder{}, err
	}
	return req, nil
}
