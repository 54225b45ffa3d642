package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"maisonaurore/internal/domain"
	applog "maisonaurore/internal/log"
)

// CartRepository persists one opaque cart blob per session.
// Read returns domain.ErrNotFound when nothing is stored.
type CartRepository interface {
	Read(ctx context.Context, sessionID string) ([]byte, error)
	Write(ctx context.Context, sessionID string, blob []byte) error
	Clear(ctx context.Context, sessionID string) error
}

// MarkerRepository holds the transient "last added" marker. A ttl <= 0
// keeps the marker for the life of the session.
type MarkerRepository interface {
	ReadMarker(ctx context.Context, sessionID string) ([]byte, error)
	WriteMarker(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error
	ClearMarker(ctx context.Context, sessionID string) error
}

// PriceCorrections supplies the sku -> current price table applied to
// persisted carts on load.
type PriceCorrections interface {
	Corrections(ctx context.Context) (map[string]float64, error)
}

// ProductLinks resolves a product page for skus whose cart line has no url.
type ProductLinks interface {
	URLs() (map[string]string, error)
}

// HighlightDelay is how long the last-added marker survives once rendered.
const HighlightDelay = 2 * time.Second

type CartService struct {
	Carts       CartRepository
	Markers     MarkerRepository
	Corrections PriceCorrections // optional
	Links       ProductLinks     // optional
}

func NewCartService(carts CartRepository, markers MarkerRepository, corrections PriceCorrections, links ProductLinks) *CartService {
	return &CartService{Carts: carts, Markers: markers, Corrections: corrections, Links: links}
}

// Read never fails: a missing or corrupted blob yields an empty cart.
func (s *CartService) Read(ctx context.Context, sessionID string) domain.Cart {
	blob, err := s.Carts.Read(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			applog.CtxError(ctx, "cart.read.fail", err, nil)
		}
		return domain.Cart{}
	}
	var cart domain.Cart
	if err := json.Unmarshal(blob, &cart); err != nil {
		applog.CtxError(ctx, "cart.read.corrupt", err, map[string]any{"bytes": len(blob)})
		return domain.Cart{}
	}
	if cart == nil {
		cart = domain.Cart{}
	}
	return cart
}

func (s *CartService) Write(ctx context.Context, sessionID string, cart domain.Cart) error {
	if cart == nil {
		cart = domain.Cart{}
	}
	blob, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.Carts.Write(ctx, sessionID, blob)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.Carts.Clear(ctx, sessionID)
}

// Add merges on (sku, options): a matching line gains item.Qty, otherwise
// item is appended. The line is then recorded as last added.
func (s *CartService) Add(ctx context.Context, sessionID string, item domain.CartItem) error {
	if item.Qty < 1 {
		item.Qty = 1
	}
	cart := s.Read(ctx, sessionID)
	merged := false
	for i := range cart {
		if cart[i].SameLine(item) {
			cart[i].Qty += item.Qty
			merged = true
			break
		}
	}
	if !merged {
		cart = append(cart, item)
	}
	if err := s.Write(ctx, sessionID, cart); err != nil {
		return err
	}
	return s.MarkLastAdded(ctx, sessionID, item.SKU, item.Options)
}

// Remove drops the line at index; out of range is a no-op.
func (s *CartService) Remove(ctx context.Context, sessionID string, index int) error {
	cart := s.Read(ctx, sessionID)
	if index < 0 || index >= len(cart) {
		return nil
	}
	updated := make(domain.Cart, 0, len(cart)-1)
	updated = append(updated, cart[:index]...)
	updated = append(updated, cart[index+1:]...)
	return s.Write(ctx, sessionID, updated)
}

// SetQuantity clamps qty to >= 1; out of range is a no-op.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, index, qty int) error {
	cart := s.Read(ctx, sessionID)
	if index < 0 || index >= len(cart) {
		return nil
	}
	if qty < 1 {
		qty = 1
	}
	cart[index].Qty = qty
	return s.Write(ctx, sessionID, cart)
}

// Count is the number of units in the cart (badge count).
func (s *CartService) Count(ctx context.Context, sessionID string) int {
	n := 0
	for _, it := range s.Read(ctx, sessionID) {
		n += it.Qty
	}
	return n
}

func (s *CartService) Contains(ctx context.Context, sessionID, sku string) bool {
	for _, it := range s.Read(ctx, sessionID) {
		if it.SKU == sku {
			return true
		}
	}
	return false
}

func (s *CartService) MarkLastAdded(ctx context.Context, sessionID, sku, options string) error {
	blob, err := json.Marshal(domain.LastAdded{SKU: sku, Options: options})
	if err != nil {
		return err
	}
	return s.Markers.WriteMarker(ctx, sessionID, blob, 0)
}

// Load reads the cart and applies the price-correction table, writing the
// cart back when any line changed.
func (s *CartService) Load(ctx context.Context, sessionID string) domain.Cart {
	cart := s.Read(ctx, sessionID)
	if s.Corrections == nil || len(cart) == 0 {
		return cart
	}
	table, err := s.Corrections.Corrections(ctx)
	if err != nil {
		applog.CtxError(ctx, "cart.corrections.fail", err, nil)
		return cart
	}
	if ApplyPriceCorrections(cart, table) {
		if err := s.Write(ctx, sessionID, cart); err != nil {
			applog.CtxError(ctx, "cart.corrections.write.fail", err, nil)
		}
	}
	return cart
}

// ApplyPriceCorrections overwrites stale prices in place and reports
// whether anything changed.
func ApplyPriceCorrections(cart domain.Cart, table map[string]float64) bool {
	changed := false
	for i := range cart {
		if price, ok := table[cart[i].SKU]; ok && cart[i].Price != price {
			cart[i].Price = price
			changed = true
		}
	}
	return changed
}
