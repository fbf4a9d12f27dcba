package state

import (
	"errors"
	"fmt"

	"github.com/galleyhq/galley/internal/orders"
)

// Multi writes through to several stores, one per view. Reads come from the
// first store that holds the order.
type Multi []*Store

// Get returns the order from the first store that has it.
func (m Multi) Get(id int64) (orders.Order, error) {
	for _, s := range m {
		if o, err := s.Get(id); err == nil {
			return o, nil
		}
	}
	return orders.Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
}

// Upsert applies o to every store. It reports whether any store took it.
func (m Multi) Upsert(o orders.Order) (bool, error) {
	applied := false
	for _, s := range m {
		ok, err := s.Upsert(o)
		if err != nil {
			return applied, err
		}
		applied = applied || ok
	}
	return applied, nil
}

// AttachFeedback records fb in every store. It returns ErrNotFound only
// when no store holds the order.
func (m Multi) AttachFeedback(id int64, fb orders.Feedback) error {
	found := false
	for _, s := range m {
		err := s.AttachFeedback(id, fb)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	if !found {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return nil
}
