package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"maisonaurore/internal/domain"
	applog "maisonaurore/internal/log"
)

type CartRow struct {
	Index     int    `json:"index"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Options   string `json:"options"`
	Image     string `json:"image"`
	Link      string `json:"link"`
	Qty       int    `json:"qty"`
	Price     string `json:"price"`
	Subtotal  string `json:"subtotal"`
	Highlight bool   `json:"highlight"`
}

type CartView struct {
	Rows  []CartRow       `json:"rows"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"-"`
	// TotalLabel is Total formatted for display ("12,34€").
	TotalLabel string `json:"total"`
}

func (v CartView) Empty() bool { return len(v.Rows) == 0 }

// View projects the session cart into display rows. The total is recomputed
// on every call. A pending last-added marker flags its row and is then
// given HighlightDelay to live.
func (s *CartService) View(ctx context.Context, sessionID string) CartView {
	cart := s.Load(ctx, sessionID)

	links := map[string]string{}
	if s.Links != nil && len(cart) > 0 {
		if m, err := s.Links.URLs(); err == nil {
			links = m
		} else {
			applog.CtxError(ctx, "cart.links.fail", err, nil)
		}
	}

	view := CartView{Rows: make([]CartRow, 0, len(cart)), Total: decimal.Zero}
	for i, it := range cart {
		price := decimal.NewFromFloat(it.Price)
		sub := price.Mul(decimal.NewFromInt(int64(it.Qty)))
		view.Total = view.Total.Add(sub)
		view.Count += it.Qty

		link := it.URL
		if link == "" {
			link = links[it.SKU]
		}
		if link == "" {
			link = "/shop"
		}
		view.Rows = append(view.Rows, CartRow{
			Index:    i,
			SKU:      it.SKU,
			Name:     it.Name,
			Options:  it.Options,
			Image:    it.Image,
			Link:     link,
			Qty:      it.Qty,
			Price:    FormatPrice(price),
			Subtotal: FormatPrice(sub),
		})
	}
	view.TotalLabel = FormatPrice(view.Total)

	if len(view.Rows) > 0 {
		s.highlight(ctx, sessionID, view.Rows)
	}
	return view
}

func (s *CartService) highlight(ctx context.Context, sessionID string, rows []CartRow) {
	blob, err := s.Markers.ReadMarker(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			applog.CtxError(ctx, "cart.marker.read.fail", err, nil)
		}
		return
	}
	var last domain.LastAdded
	if err := json.Unmarshal(blob, &last); err != nil {
		_ = s.Markers.ClearMarker(ctx, sessionID)
		return
	}

	target := -1
	for i, r := range rows {
		if r.SKU == last.SKU && (last.Options == "" || r.Options == last.Options) {
			target = i
			break
		}
	}
	if target < 0 {
		for i, r := range rows {
			if r.SKU == last.SKU {
				target = i
				break
			}
		}
	}
	if target < 0 {
		return
	}
	rows[target].Highlight = true
	if last.Shown {
		return
	}
	// First render starts the countdown; later renders must not extend it.
	last.Shown = true
	blob, _ = json.Marshal(last)
	if err := s.Markers.WriteMarker(ctx, sessionID, blob, HighlightDelay); err != nil {
		applog.CtxError(ctx, "cart.marker.expire.fail", err, nil)
	}
}

// FormatPrice renders an amount the storefront way: two decimals, comma
// separator, euro suffix.
func FormatPrice(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1) + "€"
}

func FormatAmount(price float64) string {
	return FormatPrice(decimal.NewFromFloat(price))
}
