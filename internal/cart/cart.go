// Package cart implements the storefront's cart synchronization engine:
// a locally held cart that answers every mutation instantly and mirrors
// itself to the remote store-of-record in the background. Local state
// and the remote copy are eventually consistent; the remote wins on the
// next full fetch after the cache entry expires or is invalidated.
package cart

import "errors"

// Kind distinguishes fungible products from one-of-a-kind listings
// (animals). Unique lines always carry quantity 1.
type Kind string

const (
	KindProduct Kind = "product"
	KindUnique  Kind = "unique"
)

// Line is one row in the cart. Display metadata is snapshotted at
// add-time so rendering never joins against the product API. AddedAt
// is diagnostic only and plays no part in conflict resolution.
type Line struct {
	ProductID string  `json:"productId"`
	Kind      Kind    `json:"kind,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`

	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Stock    int    `json:"stock,omitempty"`
	Category string `json:"category,omitempty"`

	AddedAt int64 `json:"timestamp,omitempty"`
}

// Cart is an insertion-ordered sequence of lines, unique by ProductID.
// Mutations preserve order; there is no re-sort.
type Cart []Line

var (
	ErrLineNotFound  = errors.New("cart line not found")
	ErrFixedQuantity = errors.New("quantity is fixed for unique items")
)

func (c Cart) Clone() Cart {
	if len(c) == 0 {
		return Cart{}
	}
	dup := make(Cart, len(c))
	copy(dup, c)
	return dup
}

func (c Cart) index(productID string) int {
	for i, l := range c {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// refreshFrom copies add-time display metadata from item onto l,
// leaving identity and quantity alone.
func (l *Line) refreshFrom(item Line) {
	l.Price = item.Price
	l.Name = item.Name
	l.ImageURL = item.ImageURL
	l.Brand = item.Brand
	l.Stock = item.Stock
	l.Category = item.Category
}
