// Package cartapi is the cart store-of-record service the client
// engine syncs against. Every write is idempotent so deduplicated or
// repeated deliveries from optimistic clients settle on the same row.
package cartapi

import "context"

// Line mirrors the client engine's wire shape for one cart row.
type Line struct {
	ProductID string  `json:"productId"`
	Kind      string  `json:"kind,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`

	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Stock    int    `json:"stock,omitempty"`
	Category string `json:"category,omitempty"`

	AddedAt int64 `json:"timestamp,omitempty"`
}

const kindUnique = "unique"

type Store interface {
	// Get returns the user's lines in insertion order.
	Get(ctx context.Context, userID string) ([]Line, error)
	// Upsert writes one line: a new product is appended, an existing
	// one keeps its position and takes the incoming line's quantity
	// and metadata. Unique lines are pinned to quantity 1.
	Upsert(ctx context.Context, userID string, l Line) error
	// SetQuantity sets an absolute quantity. Zero or less removes the
	// line; a missing line is created with just identity and quantity.
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	// Remove deletes one line; removing an absent line succeeds.
	Remove(ctx context.Context, userID, productID string) error
	// Clear deletes every line for the user.
	Clear(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}
