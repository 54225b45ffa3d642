package domain

import "errors"

// ErrNotFound is returned by repositories when no row/key exists.
var ErrNotFound = errors.New("not found")

type Collection struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type Product struct {
	SKU          string  `db:"sku"`
	CollectionID string  `db:"collection_id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	Price        float64 `db:"price"`
	Image        string  `db:"image"`
	URL          string  `db:"url"`
	Active       bool    `db:"active"`
}

// CartItem is one line of the cart blob. JSON keys match the storefront's
// browser storage format so blobs can move between backends unchanged.
type CartItem struct {
	SKU     string  `json:"sku"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Qty     int     `json:"qty"`
	Options string  `json:"options"` // free-form variant descriptor
	Image   string  `json:"image"`
	URL     string  `json:"url"`
}

// SameLine reports whether two items share the (sku, options) merge key.
func (it CartItem) SameLine(other CartItem) bool {
	return it.SKU == other.SKU && it.Options == other.Options
}

// Cart is ordered; insertion order is preserved.
type Cart []CartItem

// LastAdded marks the most recently added line for one-time highlighting.
type LastAdded struct {
	SKU     string `json:"sku"`
	Options string `json:"options"`
	Shown   bool   `json:"shown,omitempty"` // expiry already scheduled
}

// CustomerProfile is transient: it lives for one checkout request only.
type CustomerProfile struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type PriceCorrection struct {
	SKU   string  `db:"sku"`
	Price float64 `db:"price"`
}
