// Package payments adapts the checkout payloads to the Stripe API.
package payments

import (
	"context"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"maisonaurore/internal/services"
)

const (
	modePayment     = "payment"
	billingRequired = "required"
	rateFixedAmount = "fixed_amount"
	unitBusinessDay = "business_day"
)

type Stripe struct {
	api *client.API
}

// NewStripe builds a client that never retries: a failed call surfaces
// immediately as a single checkout failure.
func NewStripe(secretKey string) *Stripe {
	return NewStripeWithBackend(secretKey, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
	}))
}

// NewStripeWithBackend points the client at a custom backend (tests, proxies).
func NewStripeWithBackend(secretKey string, backend stripe.Backend) *Stripe {
	return &Stripe{api: client.New(secretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})}
}

func (s *Stripe) CreateCustomer(ctx context.Context, req services.CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: optional(req.Email),
		Name:  optional(req.Name),
		Phone: optional(req.Phone),
	}
	params.Context = ctx
	if req.Address != nil {
		params.Address = addressParams(*req.Address)
	}
	if req.Shipping != nil {
		params.Shipping = &stripe.CustomerShippingParams{
			Name:    stripe.String(req.Shipping.Name),
			Phone:   optional(req.Shipping.Phone),
			Address: addressParams(req.Shipping.Address),
		}
	}
	cust, err := s.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req services.SessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(modePayment),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Customer:   optional(req.CustomerID),
	}
	params.Context = ctx
	if req.CustomerID == "" {
		params.CustomerEmail = optional(req.CustomerEmail)
	}

	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(li.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(li.Name),
					Description: optional(li.Description),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	if req.CollectPhone {
		params.PhoneNumberCollection = &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		}
	}
	if req.RequireBillingAddress {
		params.BillingAddressCollection = stripe.String(billingRequired)
	}
	for _, rate := range req.ShippingOptions {
		params.ShippingOptions = append(params.ShippingOptions, &stripe.CheckoutSessionShippingOptionParams{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String(rateFixedAmount),
				DisplayName: stripe.String(rate.DisplayName),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(rate.Amount),
					Currency: stripe.String(rate.Currency),
				},
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String(unitBusinessDay),
						Value: stripe.Int64(rate.MinDays),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String(unitBusinessDay),
						Value: stripe.Int64(rate.MaxDays),
					},
				},
			},
		})
	}
	if len(req.ShippingAllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.ShippingAllowedCountries),
		}
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func addressParams(a services.Address) *stripe.AddressParams {
	return &stripe.AddressParams{
		Line1:      stripe.String(a.Line1),
		Line2:      optional(a.Line2),
		City:       stripe.String(a.City),
		PostalCode: stripe.String(a.PostalCode),
		Country:    stripe.String(a.Country),
	}
}

// optional leaves empty strings out of the request.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

var _ services.PaymentProvider = (*Stripe)(nil)
