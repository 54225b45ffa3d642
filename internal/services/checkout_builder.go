package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"maisonaurore/internal/config"
	"maisonaurore/internal/domain"
)

// ErrEmptyCart rejects a checkout before any payload is built.
var ErrEmptyCart = errors.New("cart is empty")

const (
	Currency          = "eur"
	fallbackName      = "Produit"
	shippingLineName  = "Livraison"
	shippingRateName  = "Livraison standard"
	fallbackShipName  = "Client"
	maxDescriptionLen = 200
)

type LineItem struct {
	Name        string
	Description string // empty: omitted
	Currency    string
	UnitAmount  int64 // minor units
	Quantity    int64
}

type ShippingRate struct {
	DisplayName string
	Currency    string
	Amount      int64
	MinDays     int64 // business days
	MaxDays     int64
}

type Address struct {
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    string
}

type CustomerShipping struct {
	Name    string
	Phone   string
	Address Address
}

type CustomerRequest struct {
	Email    string
	Name     string
	Phone    string
	Address  *Address
	Shipping *CustomerShipping
}

// SessionRequest is the provider-neutral hosted checkout payload.
type SessionRequest struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string

	CustomerID    string
	CustomerEmail string

	CollectPhone             bool
	RequireBillingAddress    bool
	ShippingOptions          []ShippingRate
	ShippingAllowedCountries []string
}

// CheckoutPlan is what the builder hands to the session handler: the session
// payload and, when a customer record is wanted, the customer payload.
type CheckoutPlan struct {
	Session  SessionRequest
	Customer *CustomerRequest
}

type CheckoutBuilder struct {
	shippingMode     string
	shippingAmount   int64
	allowedCountries []string
	collectProfile   bool
	customerPolicy   string
	successURL       string
	cancelURL        string
	minDays, maxDays int64
}

func NewCheckoutBuilder(cfg config.Config) (*CheckoutBuilder, error) {
	ship, err := decimal.NewFromString(cfg.ShippingEUR)
	if err != nil {
		return nil, fmt.Errorf("shipping_eur %q: %w", cfg.ShippingEUR, err)
	}
	countries := cfg.AllowedCountries
	if len(countries) == 0 {
		countries = config.DefaultAllowedCountries
	}
	return &CheckoutBuilder{
		shippingMode:     cfg.ShippingMode,
		shippingAmount:   decimalMinorUnits(ship),
		allowedCountries: countries,
		collectProfile:   cfg.CollectProfile,
		customerPolicy:   cfg.CustomerPolicy,
		successURL:       cfg.SuccessURL,
		cancelURL:        cfg.CancelURL,
		minDays:          2,
		maxDays:          5,
	}, nil
}

// Build turns cart lines (and an optional profile) into a CheckoutPlan.
func (b *CheckoutBuilder) Build(items []domain.CartItem, profile *domain.CustomerProfile) (CheckoutPlan, error) {
	if len(items) == 0 {
		return CheckoutPlan{}, ErrEmptyCart
	}

	sess := SessionRequest{
		LineItems:  make([]LineItem, 0, len(items)+1),
		SuccessURL: b.successURL,
		CancelURL:  b.cancelURL,
	}
	for _, it := range items {
		sess.LineItems = append(sess.LineItems, lineFor(it))
	}

	switch b.shippingMode {
	case config.ShippingFlatLine:
		sess.LineItems = append(sess.LineItems, LineItem{
			Name:       shippingLineName,
			Currency:   Currency,
			UnitAmount: b.shippingAmount,
			Quantity:   1,
		})
	default:
		sess.CollectPhone = true
		sess.RequireBillingAddress = true
		sess.ShippingOptions = []ShippingRate{{
			DisplayName: shippingRateName,
			Currency:    Currency,
			Amount:      b.shippingAmount,
			MinDays:     b.minDays,
			MaxDays:     b.maxDays,
		}}
		sess.ShippingAllowedCountries = append([]string(nil), b.allowedCountries...)
	}

	plan := CheckoutPlan{Session: sess}
	if !b.collectProfile || profile == nil {
		return plan, nil
	}

	p := NormalizeProfile(*profile)
	complete := HasCompleteAddress(p)
	if p.Email != "" {
		plan.Session.CustomerEmail = p.Email
	}

	wantCustomer := complete
	if b.customerPolicy == config.CustomerAnyField {
		wantCustomer = p.Email != "" || p.FullName != "" || p.Phone != "" || complete
	}
	if !wantCustomer {
		return plan, nil
	}

	cust := &CustomerRequest{Email: p.Email, Name: p.FullName, Phone: p.Phone}
	if complete {
		addr := Address{Line1: p.Line1, Line2: p.Line2, City: p.City, PostalCode: p.PostalCode, Country: p.Country}
		cust.Address = &addr
		name := p.FullName
		if name == "" {
			name = fallbackShipName
		}
		cust.Shipping = &CustomerShipping{Name: name, Phone: p.Phone, Address: addr}
	}
	plan.Customer = cust
	return plan, nil
}

func lineFor(it domain.CartItem) LineItem {
	name := it.Name
	if name == "" {
		name = fallbackName
	}
	desc := it.Options
	if r := []rune(desc); len(r) > maxDescriptionLen {
		desc = string(r[:maxDescriptionLen])
	}
	qty := int64(it.Qty)
	if qty < 1 {
		qty = 1
	}
	return LineItem{
		Name:        name,
		Description: desc,
		Currency:    Currency,
		UnitAmount:  MinorUnits(it.Price),
		Quantity:    qty,
	}
}

// MinorUnits converts a EUR amount to cents, rounding half up. Negative and
// non-finite prices become 0.
func MinorUnits(price float64) int64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return decimalMinorUnits(decimal.NewFromFloat(price))
}

func decimalMinorUnits(d decimal.Decimal) int64 {
	if d.IsNegative() {
		return 0
	}
	return d.Shift(2).Round(0).IntPart()
}

func NormalizeProfile(p domain.CustomerProfile) domain.CustomerProfile {
	return domain.CustomerProfile{
		Email:      strings.TrimSpace(p.Email),
		FullName:   strings.TrimSpace(p.FullName),
		Phone:      strings.TrimSpace(p.Phone),
		Line1:      strings.TrimSpace(p.Line1),
		Line2:      strings.TrimSpace(p.Line2),
		City:       strings.TrimSpace(p.City),
		PostalCode: strings.TrimSpace(p.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(p.Country)),
	}
}

// HasCompleteAddress: street line, city, postal code and a 2-letter country.
func HasCompleteAddress(p domain.CustomerProfile) bool {
	return p.Line1 != "" && p.City != "" && p.PostalCode != "" && len(p.Country) == 2
}
