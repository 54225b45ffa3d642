package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"maisonaurore/internal/domain"
	applog "maisonaurore/internal/log"
	"maisonaurore/internal/services"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
	// CollectProfile false ignores any profile sent by the client.
	CollectProfile bool
}

type checkoutRequest struct {
	Items   []domain.CartItem       `json:"items"`
	Profile *domain.CustomerProfile `json:"profile"`
}

// decodeCheckout reads the request body. An items value that is not an
// array counts as no items and a profile that is not an object as no profile.
func decodeCheckout(body []byte) (checkoutRequest, error) {
	var req checkoutRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	var raw struct {
		Items   json.RawMessage `json:"items"`
		Profile json.RawMessage `json:"profile"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, err
	}
	if items := bytes.TrimSpace(raw.Items); len(items) > 0 && items[0] == '[' {
		if err := json.Unmarshal(items, &req.Items); err != nil {
			return req, err
		}
	}
	if profile := bytes.TrimSpace(raw.Profile); len(profile) > 0 && profile[0] == '{' {
		req.Profile = &domain.CustomerProfile{}
		if err := json.Unmarshal(profile, req.Profile); err != nil {
			return req, err
		}
	}
	return req, nil
}

// POST /create-checkout-session
func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	req, err := decodeCheckout(c.Body())
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !h.CollectProfile {
		req.Profile = nil
	}

	res, err := h.Checkout.Create(c.UserContext(), req.Items, req.Profile)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cart is empty"})
	case err != nil:
		applog.Error(c, "checkout.create.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Stripe error"})
	}
	applog.Audit(c, "checkout.create", map[string]any{"items": len(req.Items), "customer": res.CustomerID != ""})
	return c.JSON(fiber.Map{"url": res.URL})
}

// GET /health
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}
