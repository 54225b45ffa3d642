package services_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maisonaurore/internal/config"
	"maisonaurore/internal/domain"
	"maisonaurore/internal/services"
)

func builderConfig(mode, policy string) config.Config {
	return config.Config{
		SuccessURL:       "https://shop.test/success",
		CancelURL:        "https://shop.test/cancel",
		ShippingMode:     mode,
		ShippingEUR:      "5.99",
		CollectProfile:   true,
		CustomerPolicy:   policy,
		AllowedCountries: []string{"FR", "BE"},
	}
}

func newBuilder(t *testing.T, mode, policy string) *services.CheckoutBuilder {
	t.Helper()
	b, err := services.NewCheckoutBuilder(builderConfig(mode, policy))
	require.NoError(t, err)
	return b
}

func TestBuild_EmptyCartRejected(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerAnyField)

	_, err := b.Build(nil, nil)
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	_, err = b.Build([]domain.CartItem{}, &domain.CustomerProfile{Email: "a@b.fr"})
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestBuild_FlatLineShipping(t *testing.T) {
	b := newBuilder(t, config.ShippingFlatLine, config.CustomerAnyField)

	plan, err := b.Build([]domain.CartItem{
		{SKU: "a", Name: "A", Price: 10, Qty: 2},
		{SKU: "b", Name: "B", Price: 5.995, Qty: 1},
	}, nil)
	require.NoError(t, err)

	lines := plan.Session.LineItems
	require.Len(t, lines, 3)
	assert.Equal(t, int64(1000), lines[0].UnitAmount)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.Equal(t, int64(600), lines[1].UnitAmount)
	assert.Equal(t, "Livraison", lines[2].Name)
	assert.Equal(t, int64(599), lines[2].UnitAmount)
	assert.Equal(t, int64(1), lines[2].Quantity)
	for _, li := range lines {
		assert.Equal(t, "eur", li.Currency)
	}
	assert.Empty(t, plan.Session.ShippingOptions)
	assert.False(t, plan.Session.CollectPhone)
	assert.Nil(t, plan.Customer)
}

func TestBuild_ShippingOptionsMode(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerAnyField)

	plan, err := b.Build([]domain.CartItem{{SKU: "a", Name: "A", Price: 89, Qty: 1}}, nil)
	require.NoError(t, err)

	s := plan.Session
	require.Len(t, s.LineItems, 1)
	require.Len(t, s.ShippingOptions, 1)
	rate := s.ShippingOptions[0]
	assert.Equal(t, "Livraison standard", rate.DisplayName)
	assert.Equal(t, int64(599), rate.Amount)
	assert.Equal(t, int64(2), rate.MinDays)
	assert.Equal(t, int64(5), rate.MaxDays)
	assert.True(t, s.CollectPhone)
	assert.True(t, s.RequireBillingAddress)
	assert.Equal(t, []string{"FR", "BE"}, s.ShippingAllowedCountries)
	assert.Equal(t, "https://shop.test/success", s.SuccessURL)
	assert.Equal(t, "https://shop.test/cancel", s.CancelURL)
}

func TestBuild_LineDefaults(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerAnyField)

	long := strings.Repeat("é", 250)
	plan, err := b.Build([]domain.CartItem{
		{SKU: "a", Price: 12.34, Qty: 0, Options: long},
		{SKU: "b", Name: "B", Price: -3, Qty: 1},
	}, nil)
	require.NoError(t, err)

	first := plan.Session.LineItems[0]
	assert.Equal(t, "Produit", first.Name)
	assert.Equal(t, int64(1), first.Quantity)
	assert.Equal(t, int64(1234), first.UnitAmount)
	assert.Equal(t, 200, len([]rune(first.Description)))
	assert.Equal(t, int64(0), plan.Session.LineItems[1].UnitAmount)
	assert.Empty(t, plan.Session.LineItems[1].Description)
}

func TestBuild_IncompleteAddressCreatesCustomerWithoutShipping(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerAnyField)

	plan, err := b.Build([]domain.CartItem{{SKU: "a", Price: 1, Qty: 1}}, &domain.CustomerProfile{
		Email:    " claire@example.fr ",
		FullName: "Claire Martin",
		Line1:    "12 rue des Lilas",
		Country:  "fr",
	})
	require.NoError(t, err)

	require.NotNil(t, plan.Customer)
	assert.Equal(t, "claire@example.fr", plan.Customer.Email)
	assert.Equal(t, "Claire Martin", plan.Customer.Name)
	assert.Nil(t, plan.Customer.Address)
	assert.Nil(t, plan.Customer.Shipping)
	assert.Equal(t, "claire@example.fr", plan.Session.CustomerEmail)
}

func TestBuild_CompleteAddress(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerAnyField)

	plan, err := b.Build([]domain.CartItem{{SKU: "a", Price: 1, Qty: 1}}, &domain.CustomerProfile{
		Phone:      "+33600000000",
		Line1:      "12 rue des Lilas",
		City:       "Lyon",
		PostalCode: "69001",
		Country:    "fr",
	})
	require.NoError(t, err)

	require.NotNil(t, plan.Customer)
	require.NotNil(t, plan.Customer.Address)
	assert.Equal(t, "FR", plan.Customer.Address.Country)
	require.NotNil(t, plan.Customer.Shipping)
	assert.Equal(t, "Client", plan.Customer.Shipping.Name)
	assert.Equal(t, "+33600000000", plan.Customer.Shipping.Phone)
	assert.Empty(t, plan.Session.CustomerEmail)
}

func TestBuild_CompleteAddressPolicy(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerCompleteAddress)
	items := []domain.CartItem{{SKU: "a", Price: 1, Qty: 1}}

	plan, err := b.Build(items, &domain.CustomerProfile{Email: "a@b.fr", FullName: "A"})
	require.NoError(t, err)
	assert.Nil(t, plan.Customer, "identity fields alone must not create a customer")
	assert.Equal(t, "a@b.fr", plan.Session.CustomerEmail)

	plan, err = b.Build(items, &domain.CustomerProfile{
		Line1: "1 place Bellecour", City: "Lyon", PostalCode: "69002", Country: "FR",
	})
	require.NoError(t, err)
	assert.NotNil(t, plan.Customer)
}

func TestBuild_ProfileIgnoredWhenCollectionDisabled(t *testing.T) {
	cfg := builderConfig(config.ShippingOptions, config.CustomerAnyField)
	cfg.CollectProfile = false
	b, err := services.NewCheckoutBuilder(cfg)
	require.NoError(t, err)

	plan, err := b.Build([]domain.CartItem{{SKU: "a", Price: 1, Qty: 1}}, &domain.CustomerProfile{Email: "a@b.fr"})
	require.NoError(t, err)
	assert.Nil(t, plan.Customer)
	assert.Empty(t, plan.Session.CustomerEmail)
}

func TestBuild_BlankProfileNoCustomer(t *testing.T) {
	b := newBuilder(t, config.ShippingOptions, config.CustomerAnyField)
	plan, err := b.Build([]domain.CartItem{{SKU: "a", Price: 1, Qty: 1}}, &domain.CustomerProfile{Email: "  "})
	require.NoError(t, err)
	assert.Nil(t, plan.Customer)
	assert.Empty(t, plan.Session.CustomerEmail)
}

func TestNewCheckoutBuilder_BadShippingAmount(t *testing.T) {
	cfg := builderConfig(config.ShippingOptions, config.CustomerAnyField)
	cfg.ShippingEUR = "cinq"
	_, err := services.NewCheckoutBuilder(cfg)
	assert.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	cases := map[float64]int64{
		0:      0,
		10:     1000,
		5.995:  600,
		5.994:  599,
		64.99:  6499,
		0.005:  1,
		-1.5:   0,
		1999.9: 199990,
	}
	for in, want := range cases {
		assert.Equal(t, want, services.MinorUnits(in), "MinorUnits(%v)", in)
	}
}
