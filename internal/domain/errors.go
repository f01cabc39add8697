package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the requested change would move an entity
	// backwards in its lifecycle or collide with concurrent state.
	ErrConflict = errors.New("conflict")
	// ErrOutOfStock indicates a stock decrement could not be satisfied.
	ErrOutOfStock = errors.New("out of stock")
	// ErrEmptyCart rejects checkout attempts against an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)
