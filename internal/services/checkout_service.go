package services

import (
	"context"
	"errors"
	"fmt"

	"maisonaurore/internal/domain"
	applog "maisonaurore/internal/log"
	"maisonaurore/internal/metrics"
)

// PaymentProvider is the external payment API. Both calls are made at most
// once per checkout and never retried.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (customerID string, err error)
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (redirectURL string, err error)
}

type CheckoutState string

const (
	StateReceived        CheckoutState = "RECEIVED"
	StateValidated       CheckoutState = "VALIDATED"
	StateCustomerCreated CheckoutState = "CUSTOMER_CREATED"
	StateSessionCreated  CheckoutState = "SESSION_CREATED"
	StateResponded       CheckoutState = "RESPONDED"
	StateRejected        CheckoutState = "REJECTED"
	StateFailed          CheckoutState = "FAILED"
)

// ProviderError wraps any failure of the payment provider. Callers must not
// expose Err to clients.
type ProviderError struct {
	Stage string // "customer" | "session"
	Err   error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("provider %s: %v", e.Stage, e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

type CheckoutResult struct {
	URL        string
	CustomerID string
	State      CheckoutState
}

type CheckoutService struct {
	Builder  *CheckoutBuilder
	Provider PaymentProvider
}

func NewCheckoutService(b *CheckoutBuilder, p PaymentProvider) *CheckoutService {
	return &CheckoutService{Builder: b, Provider: p}
}

// Create runs one checkout: validate, optionally create the customer, then
// create the hosted session. The returned State is always terminal
// (RESPONDED, REJECTED or FAILED).
func (s *CheckoutService) Create(ctx context.Context, items []domain.CartItem, profile *domain.CustomerProfile) (res CheckoutResult, err error) {
	state := StateReceived
	defer func() {
		res.State = state
		metrics.CheckoutOutcome(string(state))
		fields := map[string]any{"state": string(state), "items": len(items)}
		if err != nil {
			applog.CtxError(ctx, "checkout.session", err, fields)
			return
		}
		applog.CtxInfo(ctx, "checkout.session", fields)
	}()

	plan, err := s.Builder.Build(items, profile)
	if err != nil {
		state = StateRejected
		return res, err
	}
	state = StateValidated

	if plan.Customer != nil {
		id, cerr := s.Provider.CreateCustomer(ctx, *plan.Customer)
		if cerr != nil {
			state = StateFailed
			return res, &ProviderError{Stage: "customer", Err: cerr}
		}
		state = StateCustomerCreated
		res.CustomerID = id
		plan.Session.CustomerID = id
		plan.Session.CustomerEmail = ""
	}

	url, serr := s.Provider.CreateCheckoutSession(ctx, plan.Session)
	if serr == nil && url == "" {
		serr = errors.New("session has no redirect url")
	}
	if serr != nil {
		state = StateFailed
		return res, &ProviderError{Stage: "session", Err: serr}
	}
	state = StateSessionCreated

	res.URL = url
	state = StateResponded
	return res, nil
}
